package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/stockroom/warehouse/internal/models"
	"github.com/stockroom/warehouse/internal/services"
	"github.com/stockroom/warehouse/internal/services/documents"
	"github.com/stockroom/warehouse/internal/services/masterdata"
	"github.com/stockroom/warehouse/internal/util"
)

// ErrNotEmpty is returned when the store already holds items.
var ErrNotEmpty = errors.New("warehouse already contains items")

// Config configures the demo data generator.
type Config struct {
	// StartDate is the business date of the opening stock take.
	StartDate time.Time
	// Days of activity to generate after the opening stock.
	Days       int
	RandomSeed int64
}

// DefaultConfig returns four weeks of activity ending on today.
func DefaultConfig(today time.Time) Config {
	return Config{
		StartDate:  today.AddDate(0, 0, -28),
		Days:       28,
		RandomSeed: 1105,
	}
}

// Summary counts what Generate created.
type Summary struct {
	Items     int
	Claims    int
	Inbounds  int
	Outbounds int
}

// Generator posts demo data through the services, so every document goes
// through the same validation and ledger rules as real input.
type Generator struct {
	svc *services.Services
	cfg Config
	rng *rand.Rand

	items   []models.Item
	balance map[int64]int64
	claims  []*openClaim
	seq     map[string]int
	summary Summary
}

// openClaim tracks what a submitted claim is still waiting for.
type openClaim struct {
	id          int64
	outstanding map[int64]int64
}

// NewGenerator creates a demo data generator.
func NewGenerator(svc *services.Services, cfg Config) *Generator {
	return &Generator{
		svc:     svc,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.RandomSeed)),
		balance: make(map[int64]int64),
		seq:     make(map[string]int),
	}
}

// Generate creates master data, an opening stock take and cfg.Days of
// claims, receipts and issues. It refuses to run against a store that
// already has items.
func (g *Generator) Generate(ctx context.Context) (*Summary, error) {
	existing, err := g.svc.Master.ListItems(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("checking existing items: %w", err)
	}
	if len(existing) > 0 {
		return nil, ErrNotEmpty
	}

	slog.Info("starting seed data generation",
		"start", util.FormatDate(g.cfg.StartDate),
		"days", g.cfg.Days,
	)

	if err := g.generateMasterData(ctx); err != nil {
		return nil, fmt.Errorf("generating master data: %w", err)
	}

	if err := g.generateOpeningStock(ctx); err != nil {
		return nil, fmt.Errorf("generating opening stock: %w", err)
	}

	for day := 1; day <= g.cfg.Days; day++ {
		date := util.FormatDate(g.cfg.StartDate.AddDate(0, 0, day))
		if err := g.generateDay(ctx, date, day); err != nil {
			return nil, fmt.Errorf("generating %s: %w", date, err)
		}
	}

	slog.Info("seed data generation complete",
		"items", g.summary.Items,
		"claims", g.summary.Claims,
		"inbounds", g.summary.Inbounds,
		"outbounds", g.summary.Outbounds,
	)

	s := g.summary
	return &s, nil
}

func (g *Generator) generateMasterData(ctx context.Context) error {
	slog.Debug("generating categories and items")

	categoryIDs := make(map[string]int64, len(Categories))
	for _, name := range Categories {
		cat, err := g.svc.Master.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		categoryIDs[name] = cat.ID
	}

	for _, name := range Operators {
		if err := g.svc.Master.CreateOperator(ctx, name); err != nil {
			return err
		}
	}

	for _, c := range catalog {
		catID := categoryIDs[c.Category]
		item, err := g.svc.Master.CreateItem(ctx, masterdata.CreateItemInput{
			Name:        c.Name,
			CategoryID:  &catID,
			SpecDefault: c.Spec,
			UnitDefault: c.Unit,
			MinStock:    c.MinStock,
		})
		if err != nil {
			return err
		}
		g.items = append(g.items, *item)
	}
	g.summary.Items = len(g.items)
	return nil
}

// generateOpeningStock receives roughly twice the minimum of every item. Every
// fifth item opens short so the alert list is never empty.
func (g *Generator) generateOpeningStock(ctx context.Context) error {
	date := util.FormatDate(g.cfg.StartDate)

	lines := make([]documents.LineInput, 0, len(g.items))
	for i, item := range g.items {
		qty := item.MinStock * 2
		if i%5 == 4 {
			qty = item.MinStock / 2
		}
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, documents.LineInput{ItemID: item.ID, Qty: qty})
	}

	return g.createDoc(ctx, documents.CreateDocumentInput{
		Type:        models.DocTypeInbound,
		BizDate:     date,
		CompanyName: suppliers[0],
		Operator:    Operators[0],
		Remark:      "Opening stock take",
		Lines:       lines,
	})
}

func (g *Generator) generateDay(ctx context.Context, date string, day int) error {
	if day%3 == 1 {
		if err := g.generateClaim(ctx, date); err != nil {
			return err
		}
	}

	if err := g.generateInbound(ctx, date); err != nil {
		return err
	}

	issues := 1 + g.rng.Intn(2)
	for i := 0; i < issues; i++ {
		if err := g.generateOutbound(ctx, date); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateClaim(ctx context.Context, date string) error {
	picked := g.pickItems(2 + g.rng.Intn(3))
	claim := &openClaim{outstanding: make(map[int64]int64, len(picked))}

	lines := make([]documents.LineInput, 0, len(picked))
	for _, item := range picked {
		qty := int64(5 * (1 + g.rng.Intn(10)))
		claim.outstanding[item.ID] = qty
		lines = append(lines, documents.LineInput{ItemID: item.ID, Qty: qty})
	}

	input := documents.CreateDocumentInput{
		Type:      models.DocTypeClaim,
		BizDate:   date,
		Requester: requesters[g.rng.Intn(len(requesters))],
		Operator:  g.operator(),
		Status:    models.ClaimSubmitted,
		Lines:     lines,
	}
	id, err := g.create(ctx, input)
	if err != nil {
		return err
	}
	claim.id = id
	g.claims = append(g.claims, claim)
	g.summary.Claims++
	return nil
}

// generateInbound receives a few restocking lines and, on most days, part or
// all of the oldest open claim.
func (g *Generator) generateInbound(ctx context.Context, date string) error {
	var lines []documents.LineInput

	if len(g.claims) > 0 && g.rng.Intn(3) > 0 {
		claim := g.claims[0]
		full := g.rng.Intn(2) == 0
		for _, itemID := range sortedKeys(claim.outstanding) {
			qty := claim.outstanding[itemID]
			if !full && qty > 1 {
				qty /= 2
			}
			claimID := claim.id
			lines = append(lines, documents.LineInput{ItemID: itemID, Qty: qty, ClaimID: &claimID})
			claim.outstanding[itemID] -= qty
			if claim.outstanding[itemID] == 0 {
				delete(claim.outstanding, itemID)
			}
		}
		if len(claim.outstanding) == 0 {
			g.claims = g.claims[1:]
		}
	}

	for _, item := range g.pickItems(1 + g.rng.Intn(3)) {
		qty := item.MinStock/2 + int64(g.rng.Intn(int(item.MinStock)+1))
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, documents.LineInput{ItemID: item.ID, Qty: qty})
	}

	return g.createDoc(ctx, documents.CreateDocumentInput{
		Type:        models.DocTypeInbound,
		BizDate:     date,
		CompanyName: suppliers[g.rng.Intn(len(suppliers))],
		Operator:    g.operator(),
		Lines:       lines,
	})
}

// generateOutbound issues stock that is on hand, never more than the balance.
func (g *Generator) generateOutbound(ctx context.Context, date string) error {
	var lines []documents.LineInput
	for _, item := range g.pickItems(1 + g.rng.Intn(3)) {
		onHand := g.balance[item.ID]
		if onHand <= 0 {
			continue
		}
		qty := 1 + g.rng.Int63n(onHand)
		if limit := item.MinStock/2 + 1; qty > limit {
			qty = limit
		}
		lines = append(lines, documents.LineInput{ItemID: item.ID, Qty: qty})
	}
	if len(lines) == 0 {
		return nil
	}

	return g.createDoc(ctx, documents.CreateDocumentInput{
		Type:        models.DocTypeOutbound,
		BizDate:     date,
		CompanyName: requesters[g.rng.Intn(len(requesters))],
		Operator:    g.operator(),
		Lines:       lines,
	})
}

// createDoc posts an inbound or outbound and mirrors it in the local balances.
func (g *Generator) createDoc(ctx context.Context, input documents.CreateDocumentInput) error {
	if _, err := g.create(ctx, input); err != nil {
		return err
	}

	sign := int64(1)
	if input.Type == models.DocTypeOutbound {
		sign = -1
		g.summary.Outbounds++
	} else {
		g.summary.Inbounds++
	}
	for _, l := range input.Lines {
		g.balance[l.ItemID] += sign * l.Qty
	}
	return nil
}

func (g *Generator) create(ctx context.Context, input documents.CreateDocumentInput) (int64, error) {
	input.DocNo = g.docNo(input.Type, input.BizDate)
	return g.svc.Documents.CreateDocument(ctx, input)
}

// docNo numbers documents per type and day, e.g. IN-20240115-002.
func (g *Generator) docNo(t models.DocType, date string) string {
	prefix := map[models.DocType]string{
		models.DocTypeClaim:    "CL",
		models.DocTypeInbound:  "IN",
		models.DocTypeOutbound: "OUT",
	}[t]
	compact := date[:4] + date[5:7] + date[8:10]

	key := prefix + compact
	g.seq[key]++
	return fmt.Sprintf("%s-%s-%03d", prefix, compact, g.seq[key])
}

// pickItems returns n distinct items in catalog order.
func (g *Generator) pickItems(n int) []models.Item {
	if n > len(g.items) {
		n = len(g.items)
	}
	idx := g.rng.Perm(len(g.items))[:n]
	sort.Ints(idx)

	picked := make([]models.Item, n)
	for i, j := range idx {
		picked[i] = g.items[j]
	}
	return picked
}

func (g *Generator) operator() string {
	return Operators[g.rng.Intn(len(Operators))]
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
