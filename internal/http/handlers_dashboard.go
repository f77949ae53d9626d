package http

import (
	"fmt"
	"net/http"

	"econorise/internal/core"
	"econorise/internal/log"
)

const (
	economicPoints    = 12
	marketItems       = 5
	developmentPoints = 10

	// unemploymentAlert is the rate above which the widget flags the labour market.
	unemploymentAlert = 5.0
)

type country struct {
	Code, Name string
}

var developmentCountries = []country{
	{"IND", "India"},
	{"BRA", "Brazil"},
	{"KEN", "Kenya"},
	{"NGA", "Nigeria"},
	{"IDN", "Indonesia"},
	{"BGD", "Bangladesh"},
}

func countryName(code string) string {
	for _, c := range developmentCountries {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}

type dashboardView struct {
	Countries []country
	Selected  string
}

type economicView struct {
	Unemployment       core.Series
	CPI                core.Series
	LatestUnemployment float64
	LatestCPI          float64
	UnemploymentHigh   bool
}

type marketView struct {
	Items []core.MarketDataItem
}

type populationBar struct {
	Year  string
	Value float64
	Max   float64
}

type developmentView struct {
	Country   string
	Name      string
	Bars      []populationBar
	Latest    core.YearValue
	HasLatest bool
}

func newEconomicView(ind *core.EconomicIndicators) economicView {
	unemployment := ind.UnemploymentRate.Tail(economicPoints)
	cpi := ind.ConsumerPriceIndex.Tail(economicPoints)
	return economicView{
		Unemployment:       unemployment,
		CPI:                cpi,
		LatestUnemployment: unemployment.Latest(),
		LatestCPI:          cpi.Latest(),
		UnemploymentHigh:   unemployment.Latest() > unemploymentAlert,
	}
}

func newDevelopmentView(code string, d *core.DevelopmentIndicators) developmentView {
	if d.Country != "" {
		code = d.Country
	}
	points := d.Tail(developmentPoints)
	var peak float64
	for _, p := range points {
		peak = max(peak, p.Value)
	}
	bars := make([]populationBar, 0, len(points))
	for _, p := range points {
		bars = append(bars, populationBar{Year: p.Year, Value: p.Value, Max: peak})
	}
	latest, ok := d.Latest()
	return developmentView{
		Country:   code,
		Name:      countryName(code),
		Bars:      bars,
		Latest:    latest,
		HasLatest: ok,
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, "dashboard_page", dashboardView{
		Countries: developmentCountries,
		Selected:  s.deps.DefaultCountry,
	})
}

// handleEconomicIndicators renders the unemployment and CPI widget.
func (s *Server) handleEconomicIndicators(w http.ResponseWriter, r *http.Request) {
	ind, err := s.deps.Dashboard.GetEconomicIndicators(r.Context())
	if err != nil {
		s.writeError(w, r, err, log.OpFetch)
		return
	}
	s.writePage(w, r, "economic_indicators", newEconomicView(ind))
}

// handleMarketData renders the first few market data sets.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Dashboard.GetMarketData(r.Context())
	if err != nil {
		s.writeError(w, r, err, log.OpFetch)
		return
	}
	if len(items) > marketItems {
		items = items[:marketItems]
	}
	s.writePage(w, r, "market_data", marketView{Items: items})
}

// handleDevelopmentIndicators renders the population widget for ?country=.
func (s *Server) handleDevelopmentIndicators(w http.ResponseWriter, r *http.Request) {
	code := countryParam(r.URL.Query())
	if code == "" {
		code = s.deps.DefaultCountry
	}

	d, err := s.deps.Dashboard.GetDevelopmentIndicators(r.Context(), code)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("development indicators for %s: %w", code, err), log.OpFetch)
		return
	}
	s.writePage(w, r, "development_indicators", newDevelopmentView(code, d))
}
