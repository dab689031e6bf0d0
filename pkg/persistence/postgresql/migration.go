package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				action_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				priority VARCHAR(50),
				assignee VARCHAR(255),
				project_id VARCHAR(255),
				record JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				scheduled_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_executions_status ON executions(status);
			CREATE INDEX idx_executions_action_type ON executions(action_type);
			CREATE INDEX idx_executions_created_at ON executions(created_at);
		`,
		2: `
			CREATE INDEX idx_executions_scheduled_at ON executions(scheduled_at) WHERE status = 'SCHEDULED';
			CREATE INDEX idx_executions_project_id ON executions(project_id);
		`,
	}
}
