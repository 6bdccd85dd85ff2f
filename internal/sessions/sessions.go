// Package sessions reads conversation summaries from a JSONL file and keeps
// them fresh while the file changes.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/strrl/chatdash/internal/db"
	"github.com/strrl/chatdash/pkg/models"
)

// QueryTimeout bounds a single load
const QueryTimeout = 30 * time.Second

// LoadFunc loads the summaries stored at path
type LoadFunc func(ctx context.Context, path string) ([]models.SessionSummary, error)

type loadResult struct {
	Sessions []models.SessionSummary
	Skipped  int
	Error    error
}

// Load returns the summaries in file order. A missing or empty file is an
// empty list.
func Load(ctx context.Context, path string) ([]models.SessionSummary, error) {
	return load(ctx, path, slog.New(slog.DiscardHandler))
}

// NewLoader returns a LoadFunc like Load that logs rows it had to skip
func NewLoader(logger *slog.Logger) LoadFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(ctx context.Context, path string) ([]models.SessionSummary, error) {
		return load(ctx, path, logger)
	}
}

func load(ctx context.Context, path string, logger *slog.Logger) ([]models.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	database, err := db.GetDB()
	if err != nil {
		return nil, err
	}

	resultChan := executeSummariesQueryAsync(ctx, database, summariesQuery(path), logger)
	result, err := awaitResult(ctx, resultChan)
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		logger.Warn("skipped unreadable session rows", "path", path, "skipped", result.Skipped)
	}
	return result.Sessions, nil
}

// awaitResult waits for the query goroutine. It closes the channel without
// a result only when ctx is done.
func awaitResult(ctx context.Context, resultChan <-chan loadResult) (loadResult, error) {
	select {
	case result, ok := <-resultChan:
		if !ok {
			if err := ctx.Err(); err != nil {
				return loadResult{}, err
			}
			return loadResult{}, errors.New("summaries query ended without a result")
		}
		if result.Error != nil {
			return loadResult{}, result.Error
		}
		return result, nil
	case <-ctx.Done():
		return loadResult{}, ctx.Err()
	}
}

// summariesQuery reads the file with a fixed schema so that missing keys
// come back as NULL instead of failing type inference.
func summariesQuery(path string) string {
	return fmt.Sprintf(`
		SELECT
			CAST(id AS VARCHAR) as session_id,
			participant.name as participant_name,
			latestMessage IS NOT NULL as has_message,
			latestMessage.text as message_text,
			latestMessage.timestamp as message_timestamp,
			unreadCount as unread_count
		FROM read_json('%s',
			format = 'newline_delimited',
			columns = {
				id: 'VARCHAR',
				participant: 'STRUCT(name VARCHAR)',
				latestMessage: 'STRUCT(text VARCHAR, timestamp VARCHAR)',
				unreadCount: 'BIGINT'
			}
		)
		WHERE id IS NOT NULL
	`, strings.ReplaceAll(path, "'", "''"))
}

func executeSummariesQueryAsync(ctx context.Context, database *sql.DB, query string, logger *slog.Logger) <-chan loadResult {
	resultChan := make(chan loadResult, 1)

	go func() {
		defer close(resultChan)

		queryCtx, cancel := context.WithTimeout(ctx, QueryTimeout)
		defer cancel()

		rows, err := database.QueryContext(queryCtx, query)
		if err != nil {
			select {
			case resultChan <- loadResult{Error: fmt.Errorf("failed to execute summaries query: %w", err)}:
			case <-ctx.Done():
			}
			return
		}
		defer rows.Close()

		var (
			sessions []models.SessionSummary
			skipped  int
		)
		for rows.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			var (
				id         string
				name       sql.NullString
				hasMessage bool
				text       sql.NullString
				timestamp  sql.NullString
				unread     sql.NullInt64
			)
			if err := rows.Scan(&id, &name, &hasMessage, &text, &timestamp, &unread); err != nil {
				skipped++
				logger.Debug("failed to scan session row", "error", err)
				continue
			}

			s := models.SessionSummary{
				ID:          id,
				Participant: models.Participant{Name: name.String},
			}
			if hasMessage {
				s.LatestMessage = &models.LatestMessage{Text: text.String, Timestamp: timestamp.String}
			}
			if unread.Valid && unread.Int64 > 0 {
				s.UnreadCount = int(unread.Int64)
			}
			sessions = append(sessions, s)
		}

		if err := rows.Err(); err != nil {
			select {
			case resultChan <- loadResult{Error: fmt.Errorf("failed to read summaries: %w", err)}:
			case <-ctx.Done():
			}
			return
		}

		select {
		case resultChan <- loadResult{Sessions: sessions, Skipped: skipped}:
		case <-ctx.Done():
		}
	}()

	return resultChan
}
