package repository

// Schema bootstraps the tables used by the postgres stores. Applied by the
// seed command and by the integration tests; production deployments run
// the same statements through their migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS workflows (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	category_id TEXT,
	description TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workflow_steps (
	workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	ordinal INT NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	role TEXT,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (workflow_id, ordinal)
);

CREATE TABLE IF NOT EXISTS workflow_executions (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflows(id),
	ticket_id TEXT NOT NULL,
	current_step INT NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	assigned_to TEXT,
	data JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workflow_executions_ticket ON workflow_executions(ticket_id);

CREATE TABLE IF NOT EXISTS workflow_logs (
	id UUID PRIMARY KEY,
	execution_id UUID NOT NULL REFERENCES workflow_executions(id),
	step_number INT NOT NULL,
	action TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workflow_logs_execution ON workflow_logs(execution_id);

CREATE TABLE IF NOT EXISTS chatbot_rules (
	id UUID PRIMARY KEY,
	question TEXT NOT NULL,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	category TEXT,
	answer TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	usage_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS auto_response_rules (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	trigger_categories TEXT[] NOT NULL DEFAULT '{}',
	priority INT NOT NULL DEFAULT 0,
	body TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
