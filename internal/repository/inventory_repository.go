package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub021/internal/model"
)

// InventoryRepo is the Inventory Ledger: the sole mutation path for
// the per-episode slot counters.  Each mutation is a single
// conditional UPDATE, so the check-and-mutate is atomic per episode
// row and two racing TryReserve calls can never jointly over-commit.
// Contention on one episode never blocks another.
//
// Schema (episode_inventory, one row per episode):
//   episode_id BIGINT UNSIGNED PRIMARY KEY,
//   pre_roll_total / pre_roll_available / pre_roll_reserved / pre_roll_booked INT,
//   mid_roll_* and post_roll_* likewise,
//   created_at, updated_at DATETIME.
//
// Rows are materialized lazily from the show's default slot counts on
// the first mutation; reads fall back to the defaults when no row
// exists yet.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns an InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// columnPrefix maps a slot type to its column family.  Only the three
// known constants ever reach SQL text.
func columnPrefix(t model.SlotType) (string, error) {
	switch t {
	case model.SlotPreRoll:
		return "pre_roll", nil
	case model.SlotMidRoll:
		return "mid_roll", nil
	case model.SlotPostRoll:
		return "post_roll", nil
	}
	return "", fmt.Errorf("unknown slot type %q", t)
}

const inventoryColumns = `episode_id,
	pre_roll_total, pre_roll_available, pre_roll_reserved, pre_roll_booked,
	mid_roll_total, mid_roll_available, mid_roll_reserved, mid_roll_booked,
	post_roll_total, post_roll_available, post_roll_reserved, post_roll_booked`

func scanInventory(row interface{ Scan(...any) error }) (model.Inventory, error) {
	var inv model.Inventory
	err := row.Scan(&inv.EpisodeID,
		&inv.PreRoll.Total, &inv.PreRoll.Available, &inv.PreRoll.Reserved, &inv.PreRoll.Booked,
		&inv.MidRoll.Total, &inv.MidRoll.Available, &inv.MidRoll.Reserved, &inv.MidRoll.Booked,
		&inv.PostRoll.Total, &inv.PostRoll.Available, &inv.PostRoll.Reserved, &inv.PostRoll.Booked)
	return inv, err
}

// ensureRow materializes the inventory row for an episode from its
// show's defaults.  The insert is a no-op when the row already exists.
// It reports ErrEpisodeNotFound when the episode itself is missing.
func (r *InventoryRepo) ensureRow(ctx context.Context, episodeID uint64) error {
	const ins = `INSERT INTO episode_inventory
	        (episode_id,
	         pre_roll_total, pre_roll_available,
	         mid_roll_total, mid_roll_available,
	         post_roll_total, post_roll_available)
	      SELECT e.id,
	             s.pre_roll_slots, s.pre_roll_slots,
	             s.mid_roll_slots, s.mid_roll_slots,
	             s.post_roll_slots, s.post_roll_slots
	        FROM episodes e
	        JOIN shows s ON s.id = e.show_id
	       WHERE e.id = ?
	      ON DUPLICATE KEY UPDATE episode_id = episode_inventory.episode_id`
	if _, err := r.db.ExecContext(ctx, ins, episodeID); err != nil {
		return err
	}
	// The INSERT..SELECT silently inserts nothing for an unknown
	// episode; distinguish that from a pre-existing row.
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM episode_inventory WHERE episode_id = ?`, episodeID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrEpisodeNotFound
	}
	return err
}

// GetForEpisode returns the ledger counters for one episode, deriving
// them from the show defaults when no row has been materialized yet.
func (r *InventoryRepo) GetForEpisode(ctx context.Context, episodeID uint64) (model.Inventory, error) {
	q := `SELECT ` + inventoryColumns + ` FROM episode_inventory WHERE episode_id = ?`
	inv, err := scanInventory(r.db.QueryRowContext(ctx, q, episodeID))
	if err == nil {
		return inv, nil
	}
	if err != sql.ErrNoRows {
		return model.Inventory{}, err
	}
	// No row: fall back to show defaults without materializing one.
	const defQ = `SELECT s.id, s.org_id, s.name, s.pre_roll_slots, s.mid_roll_slots, s.post_roll_slots
	                FROM episodes e JOIN shows s ON s.id = e.show_id WHERE e.id = ?`
	var show model.Show
	err = r.db.QueryRowContext(ctx, defQ, episodeID).Scan(
		&show.ID, &show.OrgID, &show.Name,
		&show.PreRollSlots, &show.MidRollSlots, &show.PostRollSlots)
	if err == sql.ErrNoRows {
		return model.Inventory{}, ErrEpisodeNotFound
	}
	if err != nil {
		return model.Inventory{}, err
	}
	return model.DefaultInventory(episodeID, &show), nil
}

// GetForEpisodes bulk-reads materialized inventory rows.  Episodes
// without a row are simply absent from the result; callers apply the
// show-default fallback themselves.
func (r *InventoryRepo) GetForEpisodes(ctx context.Context, episodeIDs []uint64) (map[uint64]model.Inventory, error) {
	out := make(map[uint64]model.Inventory, len(episodeIDs))
	if len(episodeIDs) == 0 {
		return out, nil
	}
	q := `SELECT ` + inventoryColumns + ` FROM episode_inventory WHERE episode_id IN (`
	args := make([]interface{}, 0, len(episodeIDs))
	for i, id := range episodeIDs {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out[inv.EpisodeID] = inv
	}
	return out, rows.Err()
}

// TryReserve atomically moves quantity slots from available to
// reserved.  The availability check sits in the WHERE clause, so a
// concurrent reserve that would jointly exceed available loses the
// race and gets InsufficientInventoryError with no change applied.
func (r *InventoryRepo) TryReserve(ctx context.Context, episodeID uint64, t model.SlotType, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid reserve quantity %d", qty)
	}
	col, err := columnPrefix(t)
	if err != nil {
		return err
	}
	if err := withRetry(ctx, func() error { return r.ensureRow(ctx, episodeID) }); err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE episode_inventory
	       SET %[1]s_available = %[1]s_available - ?,
	           %[1]s_reserved  = %[1]s_reserved + ?,
	           updated_at      = UTC_TIMESTAMP()
	     WHERE episode_id = ? AND %[1]s_available >= ?`, col)
	var affected int64
	err = withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, q, qty, qty, episodeID, qty)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return &InsufficientInventoryError{EpisodeID: episodeID, SlotType: t, Requested: qty}
	}
	return nil
}

// ReleaseReservation reverses a reserve on expiry or cancellation:
// reserved goes back to available.  Driving reserved negative is an
// invariant violation, reported and never papered over.
func (r *InventoryRepo) ReleaseReservation(ctx context.Context, episodeID uint64, t model.SlotType, qty int) error {
	return r.drainReserved(ctx, episodeID, t, qty, "release")
}

// ConfirmBooking consumes a reserve on confirmation: reserved becomes
// booked.  Same negative guard as ReleaseReservation.
func (r *InventoryRepo) ConfirmBooking(ctx context.Context, episodeID uint64, t model.SlotType, qty int) error {
	return r.drainReserved(ctx, episodeID, t, qty, "confirm")
}

func (r *InventoryRepo) drainReserved(ctx context.Context, episodeID uint64, t model.SlotType, qty int, op string) error {
	if qty <= 0 {
		return fmt.Errorf("invalid %s quantity %d", op, qty)
	}
	col, err := columnPrefix(t)
	if err != nil {
		return err
	}
	target := "available"
	if op == "confirm" {
		target = "booked"
	}
	q := fmt.Sprintf(`UPDATE episode_inventory
	       SET %[1]s_reserved = %[1]s_reserved - ?,
	           %[1]s_%[2]s    = %[1]s_%[2]s + ?,
	           updated_at     = UTC_TIMESTAMP()
	     WHERE episode_id = ? AND %[1]s_reserved >= ?`, col, target)
	var affected int64
	err = withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, q, qty, qty, episodeID, qty)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return &InvariantViolationError{EpisodeID: episodeID, SlotType: t, Op: op, Quantity: qty}
	}
	return nil
}
