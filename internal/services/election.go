package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"usdataexplorer/internal/aggregate"
	"usdataexplorer/internal/election"
	apperrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/geo"
	api "usdataexplorer/pkg/contracts/api/v1"
)

// MapView is the per-state result map of one election
type MapView struct {
	Office       election.Office                  `json:"office"`
	Year         int                              `json:"year"`
	WinningParty string                           `json:"winningParty"`
	States       map[string]*election.StateResult `json:"states"`
}

// ChartsView holds the chart rows of one election and the same rows ordered
// by turnout
type ChartsView struct {
	Office  election.Office     `json:"office"`
	Year    int                 `json:"year"`
	State   string              `json:"state,omitempty"`
	Rows    []election.ChartRow `json:"rows"`
	Turnout []election.ChartRow `json:"turnout"`
}

// TrendsView is the historical series of one entity, or the nation when no
// entity is selected
type TrendsView struct {
	Office   election.Office         `json:"office"`
	Years    []int                   `json:"years"`
	Entities []election.TrendEntity  `json:"entities"`
	Entity   string                  `json:"entity"`
	Series   []election.TrendPoint   `json:"series"`
	Turnout  []aggregate.RankedEntry `json:"turnout"`
}

// NationalEntity is the Entity of a TrendsView summed over every state
const NationalEntity = "national"

// electionRows parses office and normalizes its dataset
func (s *ExplorerService) electionRows(ctx context.Context, office string) (election.Office, []election.Row, error) {
	o, ok := election.ParseOffice(office)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownOffice, office)
	}

	records, err := s.records(ctx, o.DatasetKey())
	if err != nil {
		return "", nil, err
	}

	rows, dropped := election.Normalize(records)
	if dropped > 0 {
		s.logger.DebugContext(ctx, "Dropped election records without year or votes",
			slog.String("office", string(o)),
			slog.Int("dropped", dropped))
	}
	return o, rows, nil
}

// yearRows returns one year of rows; a year without rows is ErrNoResults
func (s *ExplorerService) yearRows(ctx context.Context, office string, year int) (election.Office, []election.Row, error) {
	if year <= 0 {
		return "", nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	o, rows, err := s.electionRows(ctx, office)
	if err != nil {
		return "", nil, err
	}
	rows = election.FilterYear(rows, year)
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("%w: %s %d", ErrNoResults, o, year)
	}
	return o, rows, nil
}

// ElectionYears lists the years with results for office
func (s *ExplorerService) ElectionYears(ctx context.Context, office string) (years []int, err error) {
	ctx, done := s.view(ctx, "election.years", attribute.String("office", office))
	defer func() { done(err) }()

	_, rows, err := s.electionRows(ctx, office)
	if err != nil {
		return nil, err
	}
	return election.AvailableYears(rows), nil
}

// ElectionMap builds the state result map for one year
func (s *ExplorerService) ElectionMap(ctx context.Context, office string, year int) (view *MapView, err error) {
	ctx, done := s.view(ctx, "election.map", attribute.String("office", office), attribute.Int("year", year))
	defer func() { done(err) }()

	o, rows, err := s.yearRows(ctx, office, year)
	if err != nil {
		return nil, err
	}
	return &MapView{
		Office:       o,
		Year:         year,
		WinningParty: election.WinningPartyByState(rows),
		States:       election.StateResults(rows, s.cfg.MarginPalette),
	}, nil
}

// ResultsTable builds the sortable per-state table for one year
func (s *ExplorerService) ResultsTable(ctx context.Context, office string, year int, q api.ResultsTableQuery) (table []election.TableRow, err error) {
	ctx, done := s.view(ctx, "election.table", attribute.String("office", office), attribute.Int("year", year))
	defer func() { done(err) }()

	if err := s.validate.Struct(q); err != nil {
		return nil, validationError(err)
	}
	_, rows, err := s.yearRows(ctx, office, year)
	if err != nil {
		return nil, err
	}
	return election.ResultsTable(rows, election.ParseSortKey(q.Sort), election.ParseDirection(q.Direction), s.cfg.ThresholdPercent), nil
}

// ElectionCharts builds the chart rows for one year, optionally for one state
func (s *ExplorerService) ElectionCharts(ctx context.Context, office string, year int, state string) (view *ChartsView, err error) {
	ctx, done := s.view(ctx, "election.charts", attribute.String("office", office), attribute.Int("year", year))
	defer func() { done(err) }()

	o, rows, err := s.yearRows(ctx, office, year)
	if err != nil {
		return nil, err
	}

	state = normalizeState(state)
	chartRows := election.ChartRows(rows, o, state, s.cfg.ThresholdPercent)
	if state != "" && len(chartRows) == 0 {
		return nil, fmt.Errorf("%w: %s %d in %s", ErrNoResults, o, year, state)
	}
	return &ChartsView{
		Office:  o,
		Year:    year,
		State:   state,
		Rows:    chartRows,
		Turnout: election.Turnout(chartRows),
	}, nil
}

// Districts lists the House districts of a state in one year
func (s *ExplorerService) Districts(ctx context.Context, office string, year int, state string) (districts []string, err error) {
	ctx, done := s.view(ctx, "election.districts", attribute.String("office", office), attribute.Int("year", year))
	defer func() { done(err) }()

	o, ok := election.ParseOffice(office)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOffice, office)
	}
	if o != election.House {
		return nil, apperrors.NewAppValidationError("districts are only published for HOUSE results").
			WithContext("office", string(o))
	}
	state = normalizeState(state)
	if state == "" {
		return nil, apperrors.NewAppValidationError("state is required").WithContext("field", "state")
	}

	_, rows, err := s.yearRows(ctx, office, year)
	if err != nil {
		return nil, err
	}
	return election.Districts(rows, state), nil
}

// ElectionTrends builds the year-over-year series of one entity. entity is a
// state code, a "state-district" key for House, or empty for the national
// series; state narrows the entity list.
func (s *ExplorerService) ElectionTrends(ctx context.Context, office, entity, state string) (view *TrendsView, err error) {
	ctx, done := s.view(ctx, "election.trends", attribute.String("office", office), attribute.String("entity", entity))
	defer func() { done(err) }()

	o, rows, err := s.electionRows(ctx, office)
	if err != nil {
		return nil, err
	}

	td := election.Trends(rows, o)
	view = &TrendsView{
		Office:   o,
		Years:    td.Years(),
		Entities: td.Entities(normalizeState(state)),
		Entity:   NationalEntity,
	}

	entity = strings.TrimSpace(entity)
	if entity == "" || strings.EqualFold(entity, NationalEntity) {
		view.Series = td.National()
	} else {
		view.Entity = strings.ToUpper(entity)
		view.Series = td.Series(view.Entity)
		if len(view.Series) == 0 {
			return nil, fmt.Errorf("%w: %s trends for %s", ErrNoResults, o, entity)
		}
	}
	view.Turnout = election.TurnoutSeries(view.Series)
	return view, nil
}

// normalizeState accepts a postal code, FIPS code or state name
func normalizeState(state string) string {
	state = strings.TrimSpace(state)
	if state == "" {
		return ""
	}
	if code := geo.Normalize(state); geo.IsMatched(code) {
		return code
	}
	return strings.ToUpper(state)
}
