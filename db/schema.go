// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	domain TEXT,
	industry TEXT,
	employee_count INTEGER NOT NULL DEFAULT 0,
	funding_usd INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);

CREATE TABLE IF NOT EXISTS prospects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	linkedin_url TEXT,
	title TEXT,
	company_id TEXT,
	intent_score INTEGER NOT NULL DEFAULT 0,
	last_activity_at DATETIME,
	status TEXT NOT NULL DEFAULT 'new',
	last_contacted_at DATETIME,
	contact_count INTEGER NOT NULL DEFAULT 0,
	qualification_score INTEGER NOT NULL DEFAULT 0,
	relationship_stage TEXT NOT NULL DEFAULT 'unknown',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (company_id) REFERENCES companies(id)
);

CREATE INDEX IF NOT EXISTS idx_prospects_email ON prospects(email);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL CHECK(type IN ('discover', 'research', 'engage', 'follow_up', 'respond', 'schedule', 'qualify', 'handoff')),
	prospect_id TEXT NOT NULL,
	priority INTEGER NOT NULL CHECK(priority BETWEEN 0 AND 100),
	scheduled_for DATETIME NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}',
	status TEXT NOT NULL CHECK(status IN ('pending', 'in_progress', 'completed', 'failed')),
	error TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_prospect ON tasks(prospect_id, type);

CREATE TABLE IF NOT EXISTS touches (
	id TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	series_id TEXT NOT NULL,
	touch_number INTEGER NOT NULL,
	channel TEXT NOT NULL CHECK(channel IN ('email', 'linkedin')),
	subject TEXT,
	body TEXT,
	sent_at DATETIME NOT NULL,
	task_id TEXT,
	UNIQUE(series_id, touch_number),
	FOREIGN KEY (prospect_id) REFERENCES prospects(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_touches_prospect ON touches(prospect_id);

CREATE TABLE IF NOT EXISTS replies (
	id TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	channel TEXT NOT NULL,
	subject TEXT,
	body TEXT NOT NULL,
	received_at DATETIME NOT NULL,
	external_id TEXT,
	thread_id TEXT,
	status TEXT NOT NULL DEFAULT 'new' CHECK(status IN ('new', 'queued', 'processed')),
	category TEXT,
	FOREIGN KEY (prospect_id) REFERENCES prospects(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_replies_external ON replies(external_id) WHERE external_id IS NOT NULL AND external_id != '';
CREATE INDEX IF NOT EXISTS idx_replies_status ON replies(status);
CREATE INDEX IF NOT EXISTS idx_replies_prospect ON replies(prospect_id);

CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	prospect_id TEXT,
	context TEXT NOT NULL,
	action TEXT NOT NULL,
	reasoning TEXT,
	confidence REAL NOT NULL,
	alternatives TEXT,
	metadata TEXT,
	fallback INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_type ON decisions(type);
CREATE INDEX IF NOT EXISTS idx_decisions_prospect ON decisions(prospect_id);

CREATE TABLE IF NOT EXISTS classifications (
	id TEXT PRIMARY KEY,
	reply_id TEXT NOT NULL,
	prospect_id TEXT NOT NULL,
	category TEXT NOT NULL,
	confidence REAL NOT NULL CHECK(confidence BETWEEN 0 AND 1),
	requires_human_review INTEGER NOT NULL,
	source TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classifications_reply ON classifications(reply_id);
CREATE INDEX IF NOT EXISTS idx_classifications_category ON classifications(category);

CREATE TABLE IF NOT EXISTS routing_decisions (
	id TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	reply_id TEXT NOT NULL,
	category TEXT NOT NULL,
	routed_to TEXT NOT NULL CHECK(routed_to IN ('objection_handler', 'meeting_scheduler', 'human', 'auto_responder', 'suppression')),
	reasoning TEXT,
	confidence REAL NOT NULL,
	action_taken TEXT NOT NULL,
	response_sent INTEGER NOT NULL DEFAULT 0,
	requires_human_review INTEGER NOT NULL DEFAULT 0,
	meeting_scheduled INTEGER,
	objection_handled INTEGER,
	escalated_to_human INTEGER,
	approval_id TEXT,
	handoff_id TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_routing_decisions_prospect ON routing_decisions(prospect_id);

CREATE TABLE IF NOT EXISTS approval_requests (
	id TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	reply_id TEXT,
	channel TEXT NOT NULL,
	subject TEXT,
	draft TEXT NOT NULL,
	reasoning TEXT,
	confidence REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'rejected', 'sent')),
	created_at DATETIME NOT NULL,
	reviewed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_approval_requests_status ON approval_requests(status);

CREATE TABLE IF NOT EXISTS handoffs (
	id TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	reply_id TEXT,
	reason TEXT NOT NULL,
	summary TEXT,
	excerpt TEXT,
	status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'resolved')),
	created_at DATETIME NOT NULL,
	resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_handoffs_prospect ON handoffs(prospect_id, status);

CREATE TABLE IF NOT EXISTS suppressions (
	address TEXT PRIMARY KEY,
	reason TEXT,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS send_counters (
	day TEXT PRIMARY KEY,
	count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outbox (
	id TEXT PRIMARY KEY,
	prospect_id TEXT NOT NULL,
	channel TEXT NOT NULL,
	recipient TEXT NOT NULL,
	subject TEXT,
	body TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'queued',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_sync_token TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	source_service TEXT NOT NULL,
	source_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	metadata TEXT,
	UNIQUE(source_service, source_id)
);

CREATE INDEX IF NOT EXISTS idx_sync_log_source ON sync_log(source_service, source_id);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
