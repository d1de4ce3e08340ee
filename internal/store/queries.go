package store

// SQL query constants. PostgresStore methods reference these constants.

const (
	queryOpenRecord = `
		INSERT INTO alert_state_records (
			name, project_id, topic_id, billing_account_id, budget_id
		) VALUES (
			@name, @project_id, @topic_id, @billing_account_id, @budget_id
		)
		ON CONFLICT (name) DO NOTHING`

	queryLockRecord = `
		SELECT name
		FROM alert_state_records
		WHERE name = $1
		FOR UPDATE`

	queryLatestState = `
		SELECT last_interval, last_threshold
		FROM alert_state_versions
		WHERE record_name = $1
		ORDER BY id DESC
		LIMIT 1`

	queryAppendState = `
		INSERT INTO alert_state_versions (record_name, last_interval, last_threshold)
		VALUES ($1, $2, $3)
		RETURNING id`
)
