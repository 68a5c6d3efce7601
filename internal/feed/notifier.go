package feed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyChannel is the Postgres channel the availabilities trigger
// NOTIFYs on (see migrations).
const NotifyChannel = "availability_events"

// PgNotifier holds a dedicated pool connection LISTENing on
// NotifyChannel. Used by a single goroutine (the watcher's notify
// loop).
type PgNotifier struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn
}

func NewPgNotifier(pool *pgxpool.Pool) *PgNotifier {
	return &PgNotifier{pool: pool}
}

// WaitForChange blocks until a notification arrives. On connection
// failure the connection is dropped and the error returned; the next
// call re-establishes the LISTEN.
func (n *PgNotifier) WaitForChange(ctx context.Context) error {
	if n.conn == nil {
		conn, err := n.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire listen connection: %w", err)
		}
		if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
			conn.Release()
			return fmt.Errorf("listen on %s: %w", NotifyChannel, err)
		}
		n.conn = conn
	}

	if _, err := n.conn.Conn().WaitForNotification(ctx); err != nil {
		n.drop()
		return fmt.Errorf("wait for notification: %w", err)
	}

	return nil
}

// Close releases the dedicated connection.
func (n *PgNotifier) Close() {
	n.drop()
}

func (n *PgNotifier) drop() {
	if n.conn != nil {
		n.conn.Release()
		n.conn = nil
	}
}
