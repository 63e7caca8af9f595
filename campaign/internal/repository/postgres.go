package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/metrics"
	"github.com/telhawk-systems/campaign-stack/campaign/internal/models"
	"github.com/telhawk-systems/campaign-stack/common/database"
)

const uniqueViolation = "23505"

const insertLogQuery = `
	INSERT INTO lead_event_log (
		event_id, campaign_id, lead_id, rotation, date_triggered, trigger_date,
		ip_address, non_action_path_taken, system_triggered, is_scheduled,
		channel, channel_id, metadata
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	RETURNING id
`

const updateLogQuery = `
	UPDATE lead_event_log
	SET event_id = $1, campaign_id = $2, lead_id = $3, rotation = $4,
		date_triggered = $5, trigger_date = $6, ip_address = $7,
		non_action_path_taken = $8, system_triggered = $9, is_scheduled = $10,
		channel = $11, channel_id = $12, metadata = $13
	WHERE id = $14
`

// PostgresRepository stores event logs in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := database.QueryContext(ctx)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// NewSession opens a unit of work with an empty identity map.
func (r *PostgresRepository) NewSession() Session {
	return &PostgresSession{pool: r.pool, tracked: make(identityMap)}
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// PostgresSession is a Session backed by a connection pool.
type PostgresSession struct {
	pool    *pgxpool.Pool
	tracked identityMap
}

// SaveEntity inserts or updates a single log.
func (s *PostgresSession) SaveEntity(ctx context.Context, log *models.LeadEventLog) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	err := s.save(ctx, []*models.LeadEventLog{log})
	metrics.ObserveStorage("save", err)
	return err
}

// SaveEntities writes logs in one transaction using a pipelined batch.
func (s *PostgresSession) SaveEntities(ctx context.Context, logs []*models.LeadEventLog) error {
	if len(logs) == 0 {
		return nil
	}

	ctx, cancel := database.BulkContext(ctx)
	defer cancel()

	err := s.save(ctx, logs)
	metrics.ObserveStorage("save_batch", err)
	return err
}

func (s *PostgresSession) save(ctx context.Context, logs []*models.LeadEventLog) error {
	logs = unique(logs)
	for _, log := range logs {
		if err := validate(log); err != nil {
			return err
		}
	}

	ids := make([]int64, len(logs))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, log := range logs {
			args, err := logArgs(log)
			if err != nil {
				return err
			}
			if id, ok := log.ID(); ok {
				batch.Queue(updateLogQuery, append(args, id)...)
			} else {
				batch.Queue(insertLogQuery, args...)
			}
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for i, log := range logs {
			if log.IsPersisted() {
				tag, err := results.Exec()
				if err != nil {
					return translate(err, "failed to update event log")
				}
				if tag.RowsAffected() == 0 {
					return ErrLogNotFound
				}
				continue
			}
			if err := results.QueryRow().Scan(&ids[i]); err != nil {
				return translate(err, "failed to insert event log")
			}
		}

		return results.Close()
	})
	if err != nil {
		return err
	}

	for i, log := range logs {
		if ids[i] != 0 {
			if err := log.AssignID(ids[i]); err != nil {
				return err
			}
		}
		s.tracked.track(log)
	}
	return nil
}

// DetachEntities removes logs from the identity map.
func (s *PostgresSession) DetachEntities(ctx context.Context, logs []*models.LeadEventLog) error {
	for _, log := range logs {
		s.tracked.detach(log)
	}
	metrics.ObserveStorage("detach", nil)
	return nil
}

// DetachAll empties the identity map.
func (s *PostgresSession) DetachAll(ctx context.Context) error {
	s.tracked = make(identityMap)
	metrics.ObserveStorage("detach_all", nil)
	return nil
}

// Tracked returns the number of tracked logs.
func (s *PostgresSession) Tracked() int {
	return len(s.tracked)
}

// Find returns the tracked instance of id or loads it. Loaded logs reference
// their event, campaign and contact by ID only.
func (s *PostgresSession) Find(ctx context.Context, id int64) (*models.LeadEventLog, error) {
	if log, ok := s.tracked[id]; ok {
		return log, nil
	}

	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT event_id, campaign_id, lead_id, rotation, date_triggered, trigger_date,
			ip_address, non_action_path_taken, system_triggered, is_scheduled,
			channel, channel_id, metadata
		FROM lead_event_log
		WHERE id = $1
	`

	var (
		eventID, campaignID, leadID int64
		ipAddress, channel          *string
		metadata                    []byte
	)
	log := models.NewLeadEventLog()
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&eventID, &campaignID, &leadID, &log.Rotation, &log.DateTriggered, &log.TriggerDate,
		&ipAddress, &log.NonActionPathTaken, &log.SystemTriggered, &log.IsScheduled,
		&channel, &log.ChannelID, &metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to get event log: %w", err)
	}

	campaign := &models.Campaign{ID: campaignID}
	log.Campaign = campaign
	log.Event = &models.Event{ID: eventID, Campaign: campaign}
	log.Contact = &models.Contact{ID: leadID}
	if ipAddress != nil {
		log.IPAddress = *ipAddress
	}
	if channel != nil {
		log.Channel = *channel
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &log.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	if err := log.AssignID(id); err != nil {
		return nil, err
	}

	s.tracked.track(log)
	return log, nil
}

func logArgs(log *models.LeadEventLog) ([]any, error) {
	var metadata []byte
	if log.Metadata != nil {
		var err error
		metadata, err = json.Marshal(log.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	var channel *string
	if log.Channel != "" {
		channel = &log.Channel
	}

	return []any{
		log.EventID(), log.CampaignID(), log.ContactID(), log.Rotation,
		log.DateTriggered, log.TriggerDate, log.IPAddress,
		log.NonActionPathTaken, log.SystemTriggered, log.IsScheduled,
		channel, log.ChannelID, metadata,
	}, nil
}

func translate(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateLog
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// unique drops repeated pointers so a log queued twice is written once.
func unique(logs []*models.LeadEventLog) []*models.LeadEventLog {
	seen := make(map[*models.LeadEventLog]struct{}, len(logs))
	out := make([]*models.LeadEventLog, 0, len(logs))
	for _, log := range logs {
		if _, ok := seen[log]; ok {
			continue
		}
		seen[log] = struct{}{}
		out = append(out, log)
	}
	return out
}
