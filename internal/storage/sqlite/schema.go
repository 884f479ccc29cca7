package sqlite

const schemaSQL = `
-- Company roster (seeded from config, read-only during scans)
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	name TEXT NOT NULL,
	category TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_ticker ON companies(ticker);

-- One score row per company, fully replaced on each scan
CREATE TABLE IF NOT EXISTS company_scores (
	company_id TEXT PRIMARY KEY,
	bottleneck_score REAL NOT NULL,
	beneficiary_score REAL NOT NULL,
	breakdown TEXT NOT NULL,
	computed_at INTEGER NOT NULL
);

-- Append-only supply-chain signals
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	signal_type TEXT NOT NULL,
	direction TEXT NOT NULL,
	magnitude REAL NOT NULL,
	summary TEXT NOT NULL,
	source TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_company ON signals(company_id, created_at);

-- Directed supply-chain edges, one row per (from, to, type) triple
CREATE TABLE IF NOT EXISTS relationships (
	from_company_id TEXT NOT NULL,
	to_company_id TEXT NOT NULL,
	rel_type TEXT NOT NULL,
	confidence REAL NOT NULL,
	notes TEXT,
	source TEXT NOT NULL,
	last_seen INTEGER NOT NULL,
	PRIMARY KEY (from_company_id, to_company_id, rel_type)
);

-- Scan-run lifecycle records
CREATE TABLE IF NOT EXISTS scan_runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	completed_at INTEGER,
	companies_scanned INTEGER NOT NULL DEFAULT 0,
	signals_found INTEGER NOT NULL DEFAULT 0,
	relationships_found INTEGER NOT NULL DEFAULT 0,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at);
`
