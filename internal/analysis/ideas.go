package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/Fhatal-Studios/FhatalX/pkg/models"
)

// DefaultIdeasLimit caps each idea screen.
const DefaultIdeasLimit = 8

var (
	longTakeProfit  = decimal.RequireFromString("1.10")
	longStopLoss    = decimal.RequireFromString("0.95")
	shortTakeProfit = decimal.RequireFromString("0.90")
	shortStopLoss   = decimal.RequireFromString("1.05")
)

// ScreenIdeas runs the momentum, dip and reversal screens over coins listed
// in tradable. Each screen keeps listing order and is capped at limit.
// Missing change fields count as 0.
func ScreenIdeas(coins []models.Coin, tradable models.TradableSet, limit int) models.IdeaBoard {
	if limit <= 0 {
		limit = DefaultIdeasLimit
	}

	board := models.IdeaBoard{
		Momentum: []models.Idea{},
		Dip:      []models.Idea{},
		Reversal: []models.Idea{},
	}
	for _, c := range coins {
		if !tradable.Has(c.Symbol) {
			continue
		}
		if IsMomentum(c) && len(board.Momentum) < limit {
			board.Momentum = append(board.Momentum, NewIdea(models.ScreenMomentum, c))
		}
		if IsDip(c) && len(board.Dip) < limit {
			board.Dip = append(board.Dip, NewIdea(models.ScreenDip, c))
		}
		if IsReversal(c) && len(board.Reversal) < limit {
			board.Reversal = append(board.Reversal, NewIdea(models.ScreenReversal, c))
		}
	}
	return board
}

func changes(c models.Coin) (h1, h24, d7 float64) {
	h1, _ = c.Change1h()
	h24, _ = c.Change24h()
	d7, _ = c.Change7d()
	return
}

// IsMomentum: 1h > 0, 24h >= 5 and 7d >= 10.
func IsMomentum(c models.Coin) bool {
	h1, h24, d7 := changes(c)
	return h1 > 0 && h24 >= 5 && d7 >= 10
}

// IsDip: 24h <= -7 and 7d < 0.
func IsDip(c models.Coin) bool {
	_, h24, d7 := changes(c)
	return h24 <= -7 && d7 < 0
}

// IsReversal: 24h < 0, 1h >= 1 and 7d > -3.
func IsReversal(c models.Coin) bool {
	h1, h24, d7 := changes(c)
	return h24 < 0 && h1 >= 1 && d7 > -3
}

// ActionFor maps a screen to its trade direction.
func ActionFor(s models.Screen) models.Action {
	switch s {
	case models.ScreenMomentum:
		return models.ActionLong
	case models.ScreenDip:
		return models.ActionShort
	default:
		return models.ActionWait
	}
}

// NewIdea builds the idea card for c under screen s, with take-profit,
// stop-loss and reward/risk for Long and Short.
func NewIdea(s models.Screen, c models.Coin) models.Idea {
	h1, h24, _ := changes(c)
	idea := models.Idea{
		Screen:    s,
		Action:    ActionFor(s),
		Coin:      c,
		Change1h:  h1,
		Change24h: h24,
	}

	price := decimal.NewFromFloat(c.CurrentPrice)
	var tp, sl decimal.Decimal
	switch idea.Action {
	case models.ActionLong:
		tp, sl = price.Mul(longTakeProfit), price.Mul(longStopLoss)
	case models.ActionShort:
		tp, sl = price.Mul(shortTakeProfit), price.Mul(shortStopLoss)
	default:
		return idea
	}

	idea.TakeProfit = &tp
	idea.StopLoss = &sl
	idea.RewardRisk = RewardRisk(price, tp, sl)
	return idea
}

// RewardRisk returns |tp - price| / |sl - price| rounded to 2 places, or nil
// when the stop distance is zero.
func RewardRisk(price, tp, sl decimal.Decimal) *decimal.Decimal {
	risk := sl.Sub(price).Abs()
	if risk.IsZero() {
		return nil
	}
	rr := tp.Sub(price).Abs().Div(risk).Round(2)
	return &rr
}
