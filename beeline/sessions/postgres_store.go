package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/beeline/server/internal/logger"
)

// postgres-backed store implementation; the schema is created on
// startup, see queryCreateSchema
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// presence traffic is many small writes, keep the pool modest
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("connected to postgres")

	return store, nil
}

// creates the tables if they do not exist yet
func (s *PostgresStore) initialize(ctx context.Context) error {
	_, err := s.db.Exec(ctx, queryCreateSchema)
	return err
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *Session) error {
	tag, err := s.db.Exec(ctx, queryCreateSession,
		session.Code,
		session.CreatedAt,
		session.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrCodeTaken
	}

	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, code string) (*Session, error) {
	var session Session

	err := s.db.QueryRow(ctx, queryGetSession, code).Scan(
		&session.Code,
		&session.CreatedAt,
		&session.ExpiresAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, code string) error {
	// presence records cascade via the foreign key
	if _, err := s.db.Exec(ctx, queryDeleteSession, code); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (s *PostgresStore) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, queryListCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	defer rows.Close()
	var codes []string

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return codes, nil
}

func (s *PostgresStore) PutRecord(ctx context.Context, code string, record *Record) error {
	var exists bool

	if err := s.db.QueryRow(ctx, querySessionExists, code).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	if !exists {
		return ErrSessionNotFound
	}

	_, err := s.db.Exec(ctx, queryPutRecord,
		code,
		record.ID,
		record.Lat,
		record.Lng,
		record.ExpiresAt,
		record.ProfilePic,
		record.DisplayName,
		record.Email,
	)

	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, code, id string) (*Record, error) {
	var record Record

	err := s.db.QueryRow(ctx, queryGetRecord, code, id).Scan(
		&record.ID,
		&record.Lat,
		&record.Lng,
		&record.ExpiresAt,
		&record.ProfilePic,
		&record.DisplayName,
		&record.Email,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &record, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, code string) ([]*Record, error) {
	var exists bool

	if err := s.db.QueryRow(ctx, querySessionExists, code).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	if !exists {
		return nil, ErrSessionNotFound
	}

	rows, err := s.db.Query(ctx, queryListRecords, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	defer rows.Close()
	records := make([]*Record, 0)

	for rows.Next() {
		var record Record
		err := rows.Scan(
			&record.ID,
			&record.Lat,
			&record.Lng,
			&record.ExpiresAt,
			&record.ProfilePic,
			&record.DisplayName,
			&record.Email,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, code, id string) error {
	if _, err := s.db.Exec(ctx, queryDeleteRecord, code, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
