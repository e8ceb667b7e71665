package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stockroom/warehouse/internal/config"
	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services"
	"github.com/stockroom/warehouse/internal/services/documents"
	"github.com/stockroom/warehouse/internal/services/reports"
	"github.com/stockroom/warehouse/internal/tui/components"
	docviews "github.com/stockroom/warehouse/internal/tui/views/documents"
	moveviews "github.com/stockroom/warehouse/internal/tui/views/moves"
	stockviews "github.com/stockroom/warehouse/internal/tui/views/stock"
	"github.com/stockroom/warehouse/internal/util"
)

// Module represents a view module in the console.
type Module string

const (
	ModuleDashboard Module = "dashboard"
	ModuleInventory Module = "inventory"
	ModuleAlerts    Module = "alerts"
	ModuleDocuments Module = "documents"
	ModuleMoves     Module = "moves"
	ModuleHelp      Module = "help"
)

// App is the Bubble Tea model of the read-only warehouse console.
type App struct {
	ctx     context.Context
	svc     *services.Services
	config  *config.Config
	clock   util.Clock
	version string

	inventory  *stockviews.InventoryView
	alertsView *stockviews.AlertsView
	docs       *docviews.ListView
	moves      *moveviews.View
	search     *components.Input

	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	currentModule  Module
	previousModule Module
	showDetail     bool
	searchMode     bool

	alerts  []Alert
	summary summary
}

// summary is the dashboard snapshot.
type summary struct {
	items      int
	lowStock   int
	openClaims int
	today      models.DailyTotal
	recent     []models.StockMove
}

// Alert is a message shown in the alert bar.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

type tickMsg time.Time

type summaryMsg struct {
	summary summary
	err     error
}

type inventoryMsg struct {
	rows []models.StockRow
	err  error
}

type itemDetailMsg struct {
	detail *models.ItemDetail
	err    error
}

type alertsMsg struct {
	alerts []models.StockAlert
	err    error
}

type docsMsg struct {
	docs []models.Doc
	err  error
}

type docDetailMsg struct {
	doc     *models.Doc
	summary *documents.ClaimSummary
	err     error
}

type movesMsg struct {
	moves []models.StockMove
	err   error
}

// dashboardRecentMoves is how many ledger entries the dashboard lists.
const dashboardRecentMoves = 5

// New creates the console over svc.
func New(svc *services.Services, cfg *config.Config, clock util.Clock, version string) *App {
	theme := NewTheme(cfg.Display.ColorScheme)
	styles := theme.Styles()

	inventory := stockviews.NewInventoryView(svc.Ledger)
	inventory.SetStyles(styles, theme.ApplyTable)

	alertsView := stockviews.NewAlertsView(svc.Ledger)
	alertsView.SetStyles(styles, theme.ApplyTable)

	docs := docviews.NewListView(svc.Documents)
	docs.SetStyles(styles, theme.ApplyTable)

	moves := moveviews.NewView(svc.Ledger, cfg.Inventory.RecentMovesLimit)
	moves.SetStyles(styles, theme.ApplyTable)

	search := components.NewInput("Name")
	search.SetStyles(theme.Label, theme.Accent)

	return &App{
		ctx:           context.Background(),
		svc:           svc,
		config:        cfg,
		clock:         clock,
		version:       version,
		inventory:     inventory,
		alertsView:    alertsView,
		docs:          docs,
		moves:         moves,
		search:        search,
		theme:         theme,
		keys:          DefaultKeyMap(),
		currentModule: ModuleDashboard,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(tickCmd(), a.loadSummary())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.updateViewDimensions()
		return a, nil

	case tickMsg:
		return a, tickCmd()

	case summaryMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load summary: "+msg.err.Error())
			return a, nil
		}
		a.summary = msg.summary
		return a, nil

	case inventoryMsg:
		a.inventory.SetError(msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load inventory: "+msg.err.Error())
			return a, nil
		}
		a.inventory.SetRows(msg.rows)
		return a, nil

	case itemDetailMsg:
		if msg.err != nil {
			a.showDetail = false
			a.AddAlert(AlertWarning, "Failed to load item: "+msg.err.Error())
			return a, nil
		}
		a.inventory.SetDetail(msg.detail)
		return a, nil

	case alertsMsg:
		a.alertsView.SetError(msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load alerts: "+msg.err.Error())
			return a, nil
		}
		a.alertsView.SetAlerts(msg.alerts)
		a.summary.lowStock = len(msg.alerts)
		return a, nil

	case docsMsg:
		a.docs.SetError(msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load documents: "+msg.err.Error())
			return a, nil
		}
		a.docs.SetDocs(msg.docs)
		return a, nil

	case docDetailMsg:
		if msg.err != nil {
			a.showDetail = false
			a.AddAlert(AlertWarning, "Failed to load document: "+msg.err.Error())
			return a, nil
		}
		a.docs.SetDetail(msg.doc, msg.summary)
		return a, nil

	case movesMsg:
		a.moves.SetError(msg.err)
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load moves: "+msg.err.Error())
			return a, nil
		}
		a.moves.SetMoves(msg.moves)
		return a, nil
	}

	return a, nil
}

// updateViewDimensions sizes the tables to the content area.
func (a *App) updateViewDimensions() {
	// Title, filter line, table header, border and help take about 8 lines.
	rows := ContentHeight(a.height, chromeLines) - 8
	if rows < 3 {
		rows = 3
	}
	a.inventory.SetVisibleRows(rows)
	a.alertsView.SetVisibleRows(rows)
	a.docs.SetVisibleRows(rows)
	a.moves.SetVisibleRows(rows)
}

func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
		}
		return a, nil
	}

	// Search takes every key until it is applied or cancelled.
	if a.searchMode {
		return a.handleSearchKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	if a.keys.IsFunctionKey(msg) {
		module := a.keys.FunctionKeyModule(msg)
		switch module {
		case "quit":
			a.showConfirm = true
			return a, nil
		case ModuleHelp:
			if a.currentModule != ModuleHelp {
				a.previousModule = a.currentModule
			}
			a.currentModule = ModuleHelp
			return a, nil
		}
		return a, a.switchTo(module)
	}

	if a.keys.Back.Matches(msg) {
		if a.showDetail {
			a.showDetail = false
			return a, nil
		}
		if a.currentModule == ModuleHelp && a.previousModule != "" {
			a.currentModule = a.previousModule
			a.previousModule = ""
		}
		return a, nil
	}

	if a.keys.Refresh.Matches(msg) && !a.showDetail {
		return a, a.reload()
	}

	switch a.currentModule {
	case ModuleInventory:
		return a.handleInventoryKeys(msg)
	case ModuleAlerts:
		switch {
		case a.keys.Up.Matches(msg):
			a.alertsView.MoveUp()
		case a.keys.Down.Matches(msg):
			a.alertsView.MoveDown()
		}
	case ModuleDocuments:
		return a.handleDocumentKeys(msg)
	case ModuleMoves:
		switch {
		case a.keys.Up.Matches(msg):
			a.moves.MoveUp()
		case a.keys.Down.Matches(msg):
			a.moves.MoveDown()
		}
	}

	return a, nil
}

// switchTo opens module and loads its data.
func (a *App) switchTo(module Module) tea.Cmd {
	a.currentModule = module
	a.previousModule = ""
	a.showDetail = false
	return a.reload()
}

// reload refreshes the data behind the current module.
func (a *App) reload() tea.Cmd {
	switch a.currentModule {
	case ModuleDashboard:
		return a.loadSummary()
	case ModuleInventory:
		return a.loadInventory()
	case ModuleAlerts:
		return a.loadAlerts()
	case ModuleDocuments:
		return a.loadDocuments()
	case ModuleMoves:
		return a.loadMoves()
	}
	return nil
}

func (a *App) handleInventoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.inventory.MoveUp()
	case a.keys.Down.Matches(msg):
		a.inventory.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.inventory.PageUp()
	case a.keys.PageDown.Matches(msg):
		a.inventory.PageDown()
	case a.keys.Select.Matches(msg):
		if row := a.inventory.Selected(); row != nil {
			a.showDetail = true
			a.inventory.SetDetail(nil)
			return a, a.loadItemDetail(row.ItemID)
		}
	case a.keys.Sort.Matches(msg):
		a.inventory.CycleSort()
		return a, a.loadInventory()
	case a.keys.Search.Matches(msg):
		a.searchMode = true
		a.search.SetValue(a.inventory.Query())
		a.search.Focus(true)
	}
	return a, nil
}

func (a *App) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.searchMode = false
		a.search.Focus(false)
		a.search.SetValue("")
		a.inventory.SetQuery("")
		return a, a.loadInventory()
	case "enter":
		a.searchMode = false
		a.search.Focus(false)
		a.inventory.SetQuery(a.search.Value())
		return a, a.loadInventory()
	}

	a.search.HandleKey(msg.String())
	return a, nil
}

func (a *App) handleDocumentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.docs.MoveUp()
	case a.keys.Down.Matches(msg):
		a.docs.MoveDown()
	case a.keys.PageUp.Matches(msg):
		a.docs.PageUp()
	case a.keys.PageDown.Matches(msg):
		a.docs.PageDown()
	case a.keys.Select.Matches(msg):
		if doc := a.docs.Selected(); doc != nil {
			a.showDetail = true
			a.docs.SetDetail(nil, nil)
			return a, a.loadDocDetail(doc.ID)
		}
	case a.keys.Type.Matches(msg):
		a.docs.CycleType()
		return a, a.loadDocuments()
	}
	return a, nil
}

// The load commands run off the update loop and only read from the services;
// results are applied to the views in Update.

func (a *App) loadSummary() tea.Cmd {
	ctx := a.ctx
	today := util.FormatDate(a.clock.Now())
	return func() tea.Msg {
		var s summary

		items, err := a.svc.Master.ListItems(ctx, true)
		if err != nil {
			return summaryMsg{err: err}
		}
		s.items = len(items)

		alerts, err := a.svc.Ledger.Alerts(ctx)
		if err != nil {
			return summaryMsg{err: err}
		}
		s.lowStock = len(alerts)

		claims, err := a.svc.Documents.ClaimsForInbound(ctx)
		if err != nil {
			return summaryMsg{err: err}
		}
		s.openClaims = len(claims)

		daily, err := a.svc.Reports.Daily(ctx, reports.Range{Start: today, End: today})
		if err != nil {
			return summaryMsg{err: err}
		}
		s.today.Date = today
		if len(daily) > 0 {
			s.today = daily[0]
		}

		s.recent, err = a.svc.Ledger.RecentMoves(ctx, dashboardRecentMoves)
		if err != nil {
			return summaryMsg{err: err}
		}
		return summaryMsg{summary: s}
	}
}

func (a *App) loadInventory() tea.Cmd {
	ctx, filter := a.ctx, a.inventory.Filter()
	return func() tea.Msg {
		rows, err := a.svc.Ledger.ListBalances(ctx, filter)
		return inventoryMsg{rows: rows, err: err}
	}
}

func (a *App) loadItemDetail(itemID int64) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		detail, err := a.svc.Ledger.ItemDetail(ctx, itemID)
		return itemDetailMsg{detail: detail, err: err}
	}
}

func (a *App) loadAlerts() tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		alerts, err := a.svc.Ledger.Alerts(ctx)
		return alertsMsg{alerts: alerts, err: err}
	}
}

func (a *App) loadDocuments() tea.Cmd {
	ctx, filter := a.ctx, a.docs.Filter()
	return func() tea.Msg {
		docs, err := a.svc.Documents.ListDocuments(ctx, filter)
		return docsMsg{docs: docs, err: err}
	}
}

func (a *App) loadDocDetail(id int64) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		doc, summary, err := docviews.FetchDetail(ctx, a.svc.Documents, id)
		return docDetailMsg{doc: doc, summary: summary, err: err}
	}
}

func (a *App) loadMoves() tea.Cmd {
	ctx, limit := a.ctx, a.moves.Limit()
	return func() tea.Msg {
		moves, err := a.svc.Ledger.RecentMoves(ctx, limit)
		return movesMsg{moves: moves, err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Warehouse console closed.")
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := ContentHeight(a.height, chromeLines)
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

func (a *App) renderHeader() string {
	title := "WAREHOUSE CONSOLE v" + a.version
	info := fmt.Sprintf("ITEMS: %d | LOW: %d", a.summary.items, a.summary.lowStock)

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 4
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

func (a *App) renderAlertBar() string {
	now := a.clock.Now()
	timeStr := now.Format(a.config.Display.DateFormat + " 15:04")

	var alertText string
	switch {
	case len(a.alerts) > 0:
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	case a.summary.lowStock > 0:
		alertText = a.theme.AlertWarn.Render(fmt.Sprintf("%d item(s) below minimum stock", a.summary.lowStock))
	default:
		alertText = a.theme.Muted.Render("All stock levels normal")
	}

	return a.theme.Value.Render(timeStr) + a.theme.StatusDivider.Render() + alertText
}

func (a *App) renderContent(height int) string {
	contentWidth := ContentWidth(a.width, 0, MaxContentWidth)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	return style.Render(lipgloss.NewStyle().Width(contentWidth).Render(a.moduleContent(contentWidth, height)))
}

func (a *App) moduleContent(width, height int) string {
	switch a.currentModule {
	case ModuleInventory:
		if a.showDetail {
			return a.inventory.RenderDetail(width)
		}
		var searchBar string
		if a.searchMode {
			searchBar = a.search.Render() + "\n\n"
		}
		return searchBar + a.inventory.Render(width, height)
	case ModuleAlerts:
		return a.alertsView.Render(width, height)
	case ModuleDocuments:
		if a.showDetail {
			return a.docs.RenderDetail(width)
		}
		return a.docs.Render(width, height)
	case ModuleMoves:
		return a.moves.Render(width, height)
	case ModuleHelp:
		return a.renderHelp()
	default:
		return a.renderDashboard(width)
	}
}

func (a *App) renderDashboard(width int) string {
	var b strings.Builder
	s := a.summary

	b.WriteString(a.theme.Title.Render("=== WAREHOUSE OVERVIEW ==="))
	b.WriteString("\n\n")

	panelWidth := 36
	if width < 2*panelWidth+2 {
		panelWidth = width
	}

	stock := fmt.Sprintf("Active items:   %d\nBelow minimum:  %d\n", s.items, s.lowStock)
	healthy := s.items - s.lowStock
	stock += a.theme.ProgressBar(float64(healthy), float64(s.items), panelWidth-6)

	today := fmt.Sprintf("Inbound qty:    %d\nOutbound qty:   %d\nOpen claims:    %d",
		s.today.InQty, s.today.OutQty, s.openClaims)

	b.WriteString(SideBySide(
		a.theme.Panel("STOCK", stock, panelWidth),
		a.theme.Panel("TODAY "+s.today.Date, today, panelWidth),
		width, 2))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("RECENT MOVES"))
	b.WriteString("\n")
	if len(s.recent) == 0 {
		b.WriteString(a.theme.Muted.Render("  No stock moves recorded."))
		b.WriteString("\n")
	}
	for _, m := range s.recent {
		line := fmt.Sprintf("  %s  %-6s %+6d  %s", m.BizDate, m.MoveType, m.QtyDelta, Truncate(m.ItemName, 30))
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("=== HELP ==="))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("NAVIGATION"))
	b.WriteString("\n\n")

	navItems := [][2]string{
		{"F1", "Help"},
		{"F2", "Dashboard"},
		{"F3", "Inventory"},
		{"F4", "Low Stock Alerts"},
		{"F5", "Documents"},
		{"F6", "Stock Moves"},
		{"F10", "Quit"},
	}
	for _, item := range navItems {
		b.WriteString(a.theme.Primary.Render(fmt.Sprintf("    %-8s  %s", item[0], item[1])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("CONTROLS"))
	b.WriteString("\n\n")

	ctrlItems := [][2]string{
		{"Up/Down", "Navigate"},
		{"Enter", "Details"},
		{"Esc", "Back/Cancel"},
		{"/", "Search items by name"},
		{"o", "Cycle inventory sort"},
		{"t", "Cycle document type"},
		{"r", "Refresh"},
		{"PgUp/Dn", "Page navigation"},
	}
	for _, item := range ctrlItems {
		b.WriteString(a.theme.Primary.Render(fmt.Sprintf("    %-8s  %s", item[0], item[1])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Close the warehouse console?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

func (a *App) renderFooter() string {
	return a.theme.DrawHorizontalLine(a.width) + "\n" + a.theme.Footer.Render(a.keys.StatusBarHelp(a.width))
}

// AddAlert pushes a message to the alert bar, keeping the latest ten.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.clock.Now(),
	}}, a.alerts...)

	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = nil
}

// Run starts the console and blocks until the user quits or ctx is done.
func Run(ctx context.Context, svc *services.Services, cfg *config.Config, clock util.Clock, version string) error {
	app := New(svc, cfg, clock, version)
	app.ctx = ctx

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
