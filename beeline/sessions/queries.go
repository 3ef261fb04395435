package sessions

const (
	queryCreateSchema = `
		CREATE TABLE IF NOT EXISTS sessions (
			code        TEXT PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL,
			expires_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS presence_records (
			session_code TEXT NOT NULL REFERENCES sessions(code) ON DELETE CASCADE,
			user_id      TEXT NOT NULL,
			lat          DOUBLE PRECISION NOT NULL,
			lng          DOUBLE PRECISION NOT NULL,
			expires_at   TIMESTAMPTZ NOT NULL,
			profile_pic  TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			email        TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (session_code, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_presence_records_expires_at ON presence_records(expires_at);
	`

	// session queries
	queryCreateSession = `
		INSERT INTO sessions (code, created_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
	`

	queryGetSession = `
		SELECT code, created_at, expires_at
		FROM sessions
		WHERE code = $1
	`

	queryDeleteSession = `
		DELETE FROM sessions
		WHERE code = $1
	`

	queryListCodes = `
		SELECT code
		FROM sessions
	`

	// presence record queries
	queryPutRecord = `
		INSERT INTO presence_records (session_code, user_id, lat, lng, expires_at, profile_pic, display_name, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_code, user_id) DO UPDATE
		SET lat = EXCLUDED.lat,
		    lng = EXCLUDED.lng,
		    expires_at = EXCLUDED.expires_at,
		    profile_pic = EXCLUDED.profile_pic,
		    display_name = EXCLUDED.display_name,
		    email = EXCLUDED.email
	`

	queryGetRecord = `
		SELECT user_id, lat, lng, expires_at, profile_pic, display_name, email
		FROM presence_records
		WHERE session_code = $1 AND user_id = $2
	`

	queryListRecords = `
		SELECT user_id, lat, lng, expires_at, profile_pic, display_name, email
		FROM presence_records
		WHERE session_code = $1
	`

	queryDeleteRecord = `
		DELETE FROM presence_records
		WHERE session_code = $1 AND user_id = $2
	`

	querySessionExists = `
		SELECT EXISTS (SELECT 1 FROM sessions WHERE code = $1)
	`
)
