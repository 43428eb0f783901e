package voiceRepository

const (
	queryCreateCommand = `
		INSERT INTO voice_commands (
			id, session_id, user_id, transcript, intent,
			action, speech, confidence, language, success,
			entities, created_at
		) VALUES (
			:id, :session_id, :user_id, :transcript, :intent,
			:action, :speech, :confidence, :language, :success,
			:entities, :created_at
		)
	`

	queryGetCommandByID = `
		SELECT
			id, session_id, user_id, transcript, intent,
			action, speech, confidence, language, success,
			created_at
		FROM voice_commands
		WHERE id = :id
	`

	queryGetCommandsBySessionID = `
		SELECT
			id, session_id, user_id, transcript, intent,
			action, speech, confidence, language, success,
			created_at
		FROM voice_commands
		WHERE session_id = :session_id
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountCommandsBySessionID = `
		SELECT COUNT(*) FROM voice_commands WHERE session_id = :session_id
	`

	queryGetCommandsByUserID = `
		SELECT
			id, session_id, user_id, transcript, intent,
			action, speech, confidence, language, success,
			created_at
		FROM voice_commands
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountCommandsByUserID = `
		SELECT COUNT(*) FROM voice_commands WHERE user_id = :user_id
	`
)
