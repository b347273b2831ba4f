// Package feed implements the scoreboard GameFeed against ESPN's public
// NBA API. The engine only ever asks for one calendar day at a time and
// every upstream failure (timeout, non-200, malformed JSON) degrades to
// an empty day with the error recorded on the result.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/edgelab/internal/domain"
)

// Client fetches daily slates from the scoreboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a new scoreboard client. Every request is bounded by the
// given timeout so one unreachable date cannot hang a whole audit pass.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("component", "feed").Logger(),
	}
}

// scoreboardResponse represents the top-level scoreboard response
type scoreboardResponse struct {
	Events []event `json:"events"`
}

// event represents a single game event
type event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Competitions []competition `json:"competitions"`
	Status       status        `json:"status"`
}

// competition represents the competition details
type competition struct {
	ID          string       `json:"id"`
	Competitors []competitor `json:"competitors"`
	Odds        []odds       `json:"odds"`
	Status      status       `json:"status"`
}

// competitor represents a team in the competition
type competitor struct {
	HomeAway string   `json:"homeAway"`
	Team     team     `json:"team"`
	Score    string   `json:"score"`
	Leaders  []leader `json:"leaders"`
}

// team represents team details
type team struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

// odds represents a posted market line for the competition
type odds struct {
	Details   string  `json:"details"` // e.g. "BOS -3.5"
	OverUnder float64 `json:"overUnder"`
	Spread    float64 `json:"spread"` // Home-relative, signed
}

// leader is one statistical-leader category for a competitor
type leader struct {
	Leaders []struct {
		DisplayValue string `json:"displayValue"`
		Athlete      struct {
			DisplayName string `json:"displayName"`
		} `json:"athlete"`
	} `json:"leaders"`
}

// status represents the game status
type status struct {
	Type struct {
		Completed   bool   `json:"completed"`
		Description string `json:"description"`
		ShortDetail string `json:"shortDetail"`
	} `json:"type"`
}

// FetchDay fetches all games for one calendar date. The returned
// DayResult carries the error when the fetch degraded; the games slice is
// always safe to range over.
func (c *Client) FetchDay(ctx context.Context, date time.Time) domain.DayResult {
	res := domain.DayResult{Date: date}

	url := fmt.Sprintf("%s/scoreboard?dates=%s&limit=100", c.baseURL, date.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = fmt.Errorf("failed to build scoreboard request: %w", err)
		return res
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("Scoreboard fetch failed")
		res.Err = fmt.Errorf("failed to fetch scoreboard: %w", err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("date", date.Format("2006-01-02")).Msg("Scoreboard returned non-200")
		res.Err = fmt.Errorf("scoreboard API returned status %d", resp.StatusCode)
		return res
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("failed to read scoreboard response: %w", err)
		return res
	}

	var sb scoreboardResponse
	if err := json.Unmarshal(body, &sb); err != nil {
		c.log.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("Scoreboard payload malformed")
		res.Err = fmt.Errorf("failed to parse scoreboard response: %w", err)
		return res
	}

	games := make([]domain.Game, 0, len(sb.Events))
	for _, ev := range sb.Events {
		game, ok := c.parseEvent(ev, date)
		if !ok {
			continue
		}
		games = append(games, game)
	}

	res.Games = games
	return res
}

// parseEvent converts one feed event into a domain Game. An event missing
// its two competitors is dropped; missing optional enrichments (odds,
// leaders) are skipped without dropping the game.
func (c *Client) parseEvent(ev event, date time.Time) (domain.Game, bool) {
	if len(ev.Competitions) == 0 {
		return domain.Game{}, false
	}
	comp := ev.Competitions[0]

	var home, away *competitor
	for i := range comp.Competitors {
		switch comp.Competitors[i].HomeAway {
		case "home":
			home = &comp.Competitors[i]
		case "away":
			away = &comp.Competitors[i]
		}
	}
	if home == nil || away == nil {
		return domain.Game{}, false
	}

	game := domain.Game{
		ID:        ev.ID,
		Date:      date,
		HomeTeam:  home.Team.Name,
		AwayTeam:  away.Team.Name,
		HomeAbbr:  home.Team.Abbreviation,
		AwayAbbr:  away.Team.Abbreviation,
		HomeScore: parseScore(home.Score),
		AwayScore: parseScore(away.Score),
		Completed: ev.Status.Type.Completed,
		Status:    ev.Status.Type.ShortDetail,
	}
	if game.Status == "" {
		game.Status = ev.Status.Type.Description
	}

	// Market line is optional enrichment
	if len(comp.Odds) > 0 {
		o := comp.Odds[0]
		game.Line = &domain.MarketLine{
			Favored: favoredFromDetails(o.Details),
			Spread:  o.Spread,
			Total:   o.OverUnder,
		}
	}

	// Leaders are optional enrichment; take the first category of either side
	game.Leaders = topLeader(home, away)

	return game, true
}

// parseScore converts the feed's string score, empty pre-game, to an int.
func parseScore(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// favoredFromDetails extracts the favored abbreviation from a details
// string like "BOS -3.5". Returns empty when the shape is unexpected.
func favoredFromDetails(details string) string {
	parts := strings.Fields(details)
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

// topLeader returns a short "Name 31 PTS" blurb from the first leader
// entry available on either competitor, or empty when the feed carried
// none.
func topLeader(home, away *competitor) string {
	for _, comp := range []*competitor{home, away} {
		if comp == nil || len(comp.Leaders) == 0 {
			continue
		}
		cat := comp.Leaders[0]
		if len(cat.Leaders) == 0 {
			continue
		}
		top := cat.Leaders[0]
		if top.Athlete.DisplayName == "" {
			continue
		}
		return strings.TrimSpace(top.Athlete.DisplayName + " " + top.DisplayValue)
	}
	return ""
}
