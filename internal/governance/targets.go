package governance

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sparsh2712/DataPipeline/internal/db"
)

const targetsQuery = "SELECT symbol, cg_record_id FROM nse.metadata WHERE cg_record_id IS NOT NULL ORDER BY symbol"

// Targets lists reference-table symbols that carry a governance record id.
func Targets(ctx context.Context, exec db.Executor) ([]Target, error) {
	rows, err := exec.Execute(ctx, targetsQuery)
	if err != nil {
		return nil, eris.Wrap(err, "governance: list targets")
	}
	out := make([]Target, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			continue
		}
		symbol, _ := r[0].(string)
		id, _ := r[1].(string)
		if symbol == "" || id == "" {
			continue
		}
		out = append(out, Target{Symbol: symbol, RecordID: id})
	}
	return out, nil
}
