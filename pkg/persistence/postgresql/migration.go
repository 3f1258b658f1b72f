package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflows and their graphs
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				owner VARCHAR(255),
				version INT NOT NULL DEFAULT 1,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflows_owner ON workflows(owner);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);

			-- Node and edge ids come from one sequence so they never collide
			CREATE SEQUENCE graph_entity_ids;

			CREATE TABLE workflow_nodes (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id BIGINT NOT NULL,
				position INT NOT NULL,
				name VARCHAR(255) NOT NULL DEFAULT '',
				role VARCHAR(255) NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				is_start BOOLEAN NOT NULL DEFAULT false,
				is_end BOOLEAN NOT NULL DEFAULT false,
				position_x INT NOT NULL DEFAULT 0,
				position_y INT NOT NULL DEFAULT 0,
				PRIMARY KEY (workflow_id, id)
			);

			CREATE TABLE workflow_edges (
				workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				id BIGINT NOT NULL,
				position INT NOT NULL,
				source_id BIGINT,
				target_id BIGINT,
				name VARCHAR(255) NOT NULL DEFAULT '',
				PRIMARY KEY (workflow_id, id)
			);

			CREATE INDEX idx_workflow_nodes_workflow_id ON workflow_nodes(workflow_id);
			CREATE INDEX idx_workflow_edges_workflow_id ON workflow_edges(workflow_id);
		`,
		2: `
			-- Role roster
			CREATE TABLE roles (
				id UUID PRIMARY KEY,
				name VARCHAR(64) NOT NULL
			);

			CREATE UNIQUE INDEX idx_roles_name ON roles(LOWER(name));
		`,
		3: `
			-- Versioned documents
			CREATE TABLE documents (
				id UUID PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				current_version INT NOT NULL DEFAULT 1,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			-- content is NULL for legacy snapshots recorded without a body
			CREATE TABLE document_snapshots (
				id BIGSERIAL PRIMARY KEY,
				document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
				version INT NOT NULL,
				content TEXT,
				author VARCHAR(255) NOT NULL DEFAULT '',
				restored_from INT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (document_id, version)
			);
		`,
	}
}
