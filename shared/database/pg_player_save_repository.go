package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adventure-server/shared/interfaces"
	"adventure-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	upsertPlayerSaveQuery = `
        INSERT INTO player_saves (id, player_id, slot, snapshot, saved_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (player_id, slot) DO UPDATE SET
            snapshot = EXCLUDED.snapshot,
            saved_at = EXCLUDED.saved_at
    `
	getPlayerSaveQuery = `
        SELECT id, player_id, slot, snapshot, saved_at
        FROM player_saves
        WHERE player_id = $1 AND slot = $2
    `
	listPlayerSavesQuery = `
        SELECT id, player_id, slot, snapshot, saved_at
        FROM player_saves
        WHERE player_id = $1
        ORDER BY slot
    `
	deletePlayerSaveQuery = `DELETE FROM player_saves WHERE player_id = $1 AND slot = $2`
)

// playerSaveRow — строка таблицы player_saves. Снапшот сессии лежит
// в JSONB и разворачивается в модель после чтения.
type playerSaveRow struct {
	ID       uuid.UUID `db:"id"`
	PlayerID uuid.UUID `db:"player_id"`
	Slot     int       `db:"slot"`
	Snapshot []byte    `db:"snapshot"`
	SavedAt  time.Time `db:"saved_at"`
}

func (row *playerSaveRow) toModel() (*models.PlayerSave, error) {
	session := &models.GameSession{}
	if err := json.Unmarshal(row.Snapshot, session); err != nil {
		return nil, fmt.Errorf("поврежденный снапшот сохранения %s: %w", row.ID, err)
	}
	return &models.PlayerSave{
		ID:       row.ID,
		PlayerID: row.PlayerID,
		Slot:     row.Slot,
		Session:  session,
		SavedAt:  row.SavedAt,
	}, nil
}

var _ interfaces.PlayerSaveRepository = (*pgPlayerSaveRepository)(nil)

type pgPlayerSaveRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgPlayerSaveRepository создает репозиторий слотов сохранений поверх Postgres.
func NewPgPlayerSaveRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.PlayerSaveRepository {
	return &pgPlayerSaveRepository{
		db:     db,
		logger: logger.Named("PgPlayerSaveRepo"),
	}
}

func (r *pgPlayerSaveRepository) Upsert(ctx context.Context, save *models.PlayerSave) error {
	logFields := []zap.Field{
		zap.String("playerID", save.PlayerID.String()),
		zap.Int("slot", save.Slot),
	}

	snapshot, err := json.Marshal(save.Session)
	if err != nil {
		r.logger.Error("Failed to marshal session snapshot", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка сериализации снапшота сессии: %w", err)
	}

	if save.ID == uuid.Nil {
		save.ID = uuid.New()
	}
	if save.SavedAt.IsZero() {
		save.SavedAt = time.Now().UTC()
	}

	_, err = r.db.Exec(ctx, upsertPlayerSaveQuery,
		save.ID, save.PlayerID, save.Slot, snapshot, save.SavedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert player save", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка записи сохранения (слот %d): %w", save.Slot, err)
	}
	r.logger.Info("Player save written", logFields...)
	return nil
}

func (r *pgPlayerSaveRepository) GetByPlayerAndSlot(ctx context.Context, playerID uuid.UUID, slot int) (*models.PlayerSave, error) {
	logFields := []zap.Field{zap.String("playerID", playerID.String()), zap.Int("slot", slot)}

	var row playerSaveRow
	err := pgxscan.Get(ctx, r.db, &row, getPlayerSaveQuery, playerID, slot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Player save not found", logFields...)
			return nil, models.ErrSaveNotFound
		}
		r.logger.Error("Failed to get player save", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка чтения сохранения (слот %d): %w", slot, err)
	}

	save, err := row.toModel()
	if err != nil {
		r.logger.Error("Failed to decode save snapshot", append(logFields, zap.Error(err))...)
		return nil, err
	}
	return save, nil
}

func (r *pgPlayerSaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.PlayerSave, error) {
	logFields := []zap.Field{zap.String("playerID", playerID.String())}

	var rows []*playerSaveRow
	err := pgxscan.Select(ctx, r.db, &rows, listPlayerSavesQuery, playerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []*models.PlayerSave{}, nil
		}
		r.logger.Error("Failed to list player saves", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения списка сохранений: %w", err)
	}

	saves := make([]*models.PlayerSave, 0, len(rows))
	for _, row := range rows {
		save, err := row.toModel()
		if err != nil {
			r.logger.Error("Failed to decode save snapshot", append(logFields, zap.Error(err))...)
			return nil, err
		}
		saves = append(saves, save)
	}
	return saves, nil
}

func (r *pgPlayerSaveRepository) DeleteByPlayerAndSlot(ctx context.Context, playerID uuid.UUID, slot int) error {
	logFields := []zap.Field{zap.String("playerID", playerID.String()), zap.Int("slot", slot)}

	commandTag, err := r.db.Exec(ctx, deletePlayerSaveQuery, playerID, slot)
	if err != nil {
		r.logger.Error("Failed to delete player save", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка удаления сохранения (слот %d): %w", slot, err)
	}
	if commandTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete empty save slot", logFields...)
		return models.ErrSaveNotFound
	}
	r.logger.Info("Player save deleted", logFields...)
	return nil
}
