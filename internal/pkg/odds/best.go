package odds

import (
	"errors"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// ErrNoOdds is returned when there is nothing to pick a best price from.
var ErrNoOdds = errors.New("no odds available")

// BestOdds picks the highest decimal price per outcome across bookmakers.
// A later bookmaker replaces the current best only with a strictly greater
// price, so ties keep the first-seen bookmaker.
func BestOdds(markets []Market) (models.BestOdds, error) {
	if len(markets) == 0 {
		return models.BestOdds{}, ErrNoOdds
	}

	var best models.BestOdds
	for _, m := range markets {
		for _, o := range models.Outcomes {
			best.Offer(o, m.Bookmaker, m.Quote(o).Decimal)
		}
	}
	return best, nil
}
