package sqlstore

var schema = []string{
	`CREATE TABLE IF NOT EXISTS import_run (
		id {{ID}},
		filename TEXT NOT NULL,
		content_hash TEXT UNIQUE,
		file_size BIGINT NOT NULL,
		received_at {{TIMESTAMP}} NOT NULL,
		file_type TEXT NOT NULL,
		total_records INTEGER NOT NULL DEFAULT 0,
		processed_records INTEGER NOT NULL DEFAULT 0,
		failed_records INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error_message TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS bank_account (
		id {{ID}},
		account_no TEXT NOT NULL,
		currency TEXT NOT NULL,
		iban TEXT,
		bank_bic TEXT,
		holder_name TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (account_no, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS statement_file (
		id {{ID}},
		import_run_id BIGINT NOT NULL REFERENCES import_run(id),
		bank_account_id BIGINT NOT NULL REFERENCES bank_account(id),
		statement_ref TEXT NOT NULL,
		sequence TEXT NOT NULL,
		statement_date {{DATE}},
		currency TEXT NOT NULL,
		opening_dc TEXT NOT NULL,
		opening_amount {{NUMERIC}} NOT NULL,
		closing_dc TEXT NOT NULL,
		closing_amount {{NUMERIC}} NOT NULL,
		is_interim BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (bank_account_id, statement_ref, sequence)
	)`,
	`CREATE TABLE IF NOT EXISTS statement_balance (
		id {{ID}},
		statement_file_id BIGINT NOT NULL REFERENCES statement_file(id),
		balance_type TEXT NOT NULL,
		dc TEXT NOT NULL,
		balance_date {{DATE}} NOT NULL,
		currency TEXT NOT NULL,
		amount {{NUMERIC}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS statement_transaction (
		id {{ID}},
		statement_file_id BIGINT NOT NULL REFERENCES statement_file(id),
		line_no INTEGER NOT NULL,
		value_date {{DATE}} NOT NULL,
		entry_date {{DATE}},
		dc TEXT NOT NULL,
		funds_code TEXT,
		amount {{NUMERIC}} NOT NULL,
		signed_amount {{NUMERIC}} NOT NULL,
		currency TEXT NOT NULL,
		txn_type_code TEXT NOT NULL,
		customer_reference TEXT,
		bank_reference TEXT,
		entry_reference TEXT,
		narrative TEXT,
		ext_idempotency_hash TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS transaction_86_segment (
		id {{ID}},
		transaction_id BIGINT NOT NULL REFERENCES statement_transaction(id),
		seg_key TEXT NOT NULL,
		seg_value TEXT NOT NULL,
		seq INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS raw_statement_line (
		id {{ID}},
		statement_file_id BIGINT NOT NULL REFERENCES statement_file(id),
		line_no INTEGER NOT NULL,
		txn_line_no INTEGER,
		tag TEXT NOT NULL,
		raw_text TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS van_transaction (
		id {{ID}},
		import_run_id BIGINT NOT NULL REFERENCES import_run(id),
		line_no INTEGER NOT NULL,
		main_account_number TEXT NOT NULL,
		virtual_account_number TEXT NOT NULL,
		transaction_ref TEXT,
		bank_reference TEXT,
		remitter_name TEXT,
		remitter_account TEXT,
		remitter_ifsc TEXT,
		remitter_vpa TEXT,
		transaction_date {{DATE}},
		value_date {{DATE}},
		amount {{NUMERIC}} NOT NULL,
		channel TEXT,
		narration TEXT,
		payment_status TEXT,
		customer_code TEXT,
		invoice_ref TEXT,
		credited_at {{TIMESTAMP}},
		branch_code TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS import_error (
		id {{ID}},
		import_run_id BIGINT NOT NULL REFERENCES import_run(id),
		statement_file_id BIGINT,
		line_no INTEGER,
		code TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at {{TIMESTAMP}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_import_error_run ON import_error(import_run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_van_transaction_run ON van_transaction(import_run_id)`,
}
