package voiceRepository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	contextPkg "github.com/chatman-media/farang-marketplace-voice/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type CommandDB struct {
	ID         sql.NullString  `db:"id"`
	SessionID  sql.NullString  `db:"session_id"`
	UserID     sql.NullString  `db:"user_id"`
	Transcript sql.NullString  `db:"transcript"`
	Intent     sql.NullString  `db:"intent"`
	Action     sql.NullString  `db:"action"`
	Speech     sql.NullString  `db:"speech"`
	Confidence sql.NullFloat64 `db:"confidence"`
	Language   sql.NullString  `db:"language"`
	Success    sql.NullBool    `db:"success"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (c CommandDB) toRecord() voice.CommandRecord {
	return voice.CommandRecord{
		ID:         c.ID.String,
		SessionID:  c.SessionID.String,
		UserID:     c.UserID.String,
		Transcript: c.Transcript.String,
		Intent:     c.Intent.String,
		Action:     c.Action.String,
		Speech:     c.Speech.String,
		Confidence: c.Confidence.Float64,
		Language:   c.Language.String,
		Success:    c.Success.Bool,
		CreatedAt:  c.CreatedAt,
	}
}

func (r *commandRepository) CreateCommand(ctx context.Context, cmd entity.VoiceCommand) error {
	requestID := contextPkg.GetRequestID(ctx)

	entitiesJSON, err := json.Marshal(cmd.Entities)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to marshal command entities")
		return err
	}

	var action, speechText string
	success := false
	if cmd.Response != nil {
		action = cmd.Response.Action
		speechText = cmd.Response.Speech
		success = cmd.Response.Success
	}

	argsKV := map[string]interface{}{
		"id":         cmd.ID,
		"session_id": cmd.SessionID,
		"user_id":    cmd.UserID,
		"transcript": cmd.Text,
		"intent":     cmd.Intent.Name,
		"action":     action,
		"speech":     speechText,
		"confidence": cmd.Confidence,
		"language":   cmd.Language,
		"success":    success,
		"entities":   string(entitiesJSON),
		"created_at": cmd.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateCommand, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateCommand")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating voice command")
		return err
	}

	return nil
}

func (r *commandRepository) GetCommandByID(ctx context.Context, id string) (voice.CommandRecord, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var cmdDB CommandDB

	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryGetCommandByID, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetCommandByID named query preparation err")
		return voice.CommandRecord{}, err
	}

	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&cmdDB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"command_id": id,
			}).Warn("GetCommandByID no rows found")
			return voice.CommandRecord{}, voice.ErrCommandNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when getting voice command")
		return voice.CommandRecord{}, err
	}

	return cmdDB.toRecord(), nil
}

func (r *commandRepository) GetCommandsBySessionID(ctx context.Context, sessionID string, limit, offset int) ([]voice.CommandRecord, int, error) {
	return r.listCommands(ctx, queryGetCommandsBySessionID, queryCountCommandsBySessionID, map[string]interface{}{
		"session_id": sessionID,
		"limit":      limit,
		"offset":     offset,
	})
}

func (r *commandRepository) GetCommandsByUserID(ctx context.Context, userID string, limit, offset int) ([]voice.CommandRecord, int, error) {
	return r.listCommands(ctx, queryGetCommandsByUserID, queryCountCommandsByUserID, map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	})
}

func (r *commandRepository) listCommands(ctx context.Context, listQuery, countQuery string, argsKV map[string]interface{}) ([]voice.CommandRecord, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(listQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("listCommands named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	var rows []CommandDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing voice commands")
		return nil, 0, err
	}

	countSQL, countArgs, err := sqlx.Named(countQuery, argsKV)
	if err != nil {
		return nil, 0, err
	}
	countSQL = r.q.Rebind(countSQL)

	var total int
	if err := r.q.QueryRowxContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when counting voice commands")
		return nil, 0, err
	}

	records := make([]voice.CommandRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}

	return records, total, nil
}
