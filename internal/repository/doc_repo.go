package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/stockroom/warehouse/internal/models"
)

// DocRepository handles document header and line data access.
type DocRepository struct {
	db *sql.DB
}

// NewDocRepository creates a new document repository.
func NewDocRepository(db *sql.DB) *DocRepository {
	return &DocRepository{db: db}
}

var docColumns = []any{
	"id", "doc_type", "doc_no", "biz_date", "company_name", "requester",
	"operator", "status", "remark", "created_at", "updated_at",
}

// ============================================================================
// HEADERS
// ============================================================================

// Create inserts a document header and sets its ID. Lines are not written.
func (r *DocRepository) Create(ctx context.Context, tx *sql.Tx, doc *models.Doc) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx, `
		INSERT INTO docs (
			doc_type, doc_no, biz_date, company_name, requester,
			operator, status, remark, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(doc.DocType),
		doc.DocNo,
		doc.BizDate,
		nullableString(doc.CompanyName),
		nullableString(doc.Requester),
		nullableString(doc.Operator),
		nullableString(string(doc.Status)),
		nullableString(doc.Remark),
		timestamp(doc.CreatedAt),
		timestamp(doc.UpdatedAt),
	)
	if err != nil {
		return translate(err, "inserting document")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading document id: %w", err)
	}
	doc.ID = id
	return nil
}

// DocNoExists reports whether a document of docType already uses docNo.
func (r *DocRepository) DocNoExists(ctx context.Context, tx *sql.Tx, docType models.DocType, docNo string) (bool, error) {
	var n int
	err := getExecer(r.db, tx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM docs WHERE doc_type = ? AND doc_no = ?`,
		string(docType), docNo,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking document number: %w", err)
	}
	return n > 0, nil
}

// GetByID retrieves a document header without lines.
func (r *DocRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Doc, error) {
	query, args, err := toSQL(dialect.From("docs").Prepared(true).
		Select(docColumns...).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, err
	}
	return scanDoc(getExecer(r.db, tx).QueryRowContext(ctx, query, args...))
}

// List returns document headers matching filter.
func (r *DocRepository) List(ctx context.Context, filter models.DocFilter) ([]models.Doc, error) {
	ds := dialect.From("docs").Prepared(true).Select(docColumns...)

	if filter.Type != "" {
		ds = ds.Where(goqu.C("doc_type").Eq(string(filter.Type)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}

	sortCol := string(models.DocSortCreatedAt)
	if filter.Sort == models.DocSortBizDate {
		sortCol = string(models.DocSortBizDate)
	}
	ds = ds.Order(orderBy(goqu.C(sortCol), filter.Order), orderBy(goqu.C("id"), filter.Order))

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := toSQL(ds)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []models.Doc{}
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// UpdateHeader applies the set header fields of upd.
func (r *DocRepository) UpdateHeader(ctx context.Context, tx *sql.Tx, id int64, upd models.DocUpdate, now time.Time) error {
	if upd.Empty() {
		return nil
	}

	record := goqu.Record{"updated_at": timestamp(now)}
	if upd.BizDate.Set {
		record["biz_date"] = upd.BizDate.Value
	}
	if upd.CompanyName.Set {
		record["company_name"] = nullableString(upd.CompanyName.Value)
	}
	if upd.Requester.Set {
		record["requester"] = nullableString(upd.Requester.Value)
	}
	if upd.Operator.Set {
		record["operator"] = nullableString(upd.Operator.Value)
	}
	if upd.Remark.Set {
		record["remark"] = nullableString(upd.Remark.Value)
	}
	if upd.Status.Set {
		record["status"] = nullableString(string(upd.Status.Value))
	}

	query, args, err := toSQL(dialect.Update("docs").Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return err
	}

	res, err := getExecer(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "updating document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating document %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetStatus overwrites a document's status.
func (r *DocRepository) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status models.ClaimStatus, now time.Time) error {
	_, err := getExecer(r.db, tx).ExecContext(ctx,
		`UPDATE docs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), timestamp(now), id,
	)
	if err != nil {
		return fmt.Errorf("setting document status: %w", err)
	}
	return nil
}

// ============================================================================
// LINES
// ============================================================================

// CreateLine inserts a document line and sets its ID.
func (r *DocRepository) CreateLine(ctx context.Context, tx *sql.Tx, line *models.DocLine) error {
	res, err := getExecer(r.db, tx).ExecContext(ctx, `
		INSERT INTO doc_lines (
			doc_id, item_id, item_name, spec, qty, unit, remark,
			category_id, claim_id, sort_no, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		line.DocID,
		line.ItemID,
		line.ItemName,
		nullableString(line.Spec),
		line.Qty,
		line.Unit,
		nullableString(line.Remark),
		nullableID(line.CategoryID),
		nullableID(line.ClaimID),
		line.SortNo,
		timestamp(line.CreatedAt),
	)
	if err != nil {
		return translate(err, "inserting document line")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading line id: %w", err)
	}
	line.ID = id
	return nil
}

// Lines returns a document's lines in sort order.
func (r *DocRepository) Lines(ctx context.Context, tx *sql.Tx, docID int64) ([]models.DocLine, error) {
	rows, err := getExecer(r.db, tx).QueryContext(ctx, `
		SELECT dl.id, dl.doc_id, dl.item_id, dl.item_name, dl.spec, dl.qty, dl.unit,
			dl.remark, dl.category_id, dl.claim_id, dl.sort_no, dl.created_at, c.name
		FROM doc_lines dl
		LEFT JOIN categories c ON c.id = dl.category_id
		WHERE dl.doc_id = ?
		ORDER BY dl.sort_no, dl.id`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying document lines: %w", err)
	}
	defer rows.Close()

	lines := []models.DocLine{}
	for rows.Next() {
		var line models.DocLine
		var spec, remark, categoryName sql.NullString
		var categoryID, claimID sql.NullInt64
		var createdStr string

		err := rows.Scan(
			&line.ID, &line.DocID, &line.ItemID, &line.ItemName, &spec, &line.Qty, &line.Unit,
			&remark, &categoryID, &claimID, &line.SortNo, &createdStr, &categoryName,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning document line: %w", err)
		}

		line.Spec = spec.String
		line.Remark = remark.String
		line.CategoryID = idPtr(categoryID)
		line.ClaimID = idPtr(claimID)
		line.CreatedAt = parseTimestamp(createdStr)
		line.CategoryName = categoryName.String
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ClaimProgress compares each claim line with the inbound quantity received
// against the claim for the same item. When a claim lists an item more than
// once, receipts fill its lines in sort order and any surplus stays on the
// last of them.
func (r *DocRepository) ClaimProgress(ctx context.Context, tx *sql.Tx, claimID int64) ([]models.ClaimLineProgress, error) {
	rows, err := getExecer(r.db, tx).QueryContext(ctx, `
		SELECT cl.id, cl.item_id, cl.item_name, cl.unit, cl.qty,
			COALESCE((
				SELECT SUM(il.qty)
				FROM doc_lines il
				JOIN docs d ON d.id = il.doc_id AND d.doc_type = 'inbound'
				WHERE il.claim_id = cl.doc_id AND il.item_id = cl.item_id
			), 0)
		FROM doc_lines cl
		WHERE cl.doc_id = ?
		ORDER BY cl.sort_no, cl.id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("querying claim progress: %w", err)
	}
	defer rows.Close()

	progress := []models.ClaimLineProgress{}
	received := make(map[int64]int64)
	for rows.Next() {
		var p models.ClaimLineProgress
		var total int64
		if err := rows.Scan(&p.LineID, &p.ItemID, &p.ItemName, &p.Unit, &p.Requested, &total); err != nil {
			return nil, fmt.Errorf("scanning claim progress: %w", err)
		}
		received[p.ItemID] = total
		progress = append(progress, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	allocateReceipts(progress, received)
	return progress, nil
}

// allocateReceipts spreads each item's received total over its lines.
func allocateReceipts(lines []models.ClaimLineProgress, received map[int64]int64) {
	last := make(map[int64]int, len(received))
	for i, l := range lines {
		last[l.ItemID] = i
	}
	for i := range lines {
		l := &lines[i]
		take := received[l.ItemID]
		if i != last[l.ItemID] && take > l.Requested {
			take = l.Requested
		}
		l.Received = take
		received[l.ItemID] -= take
	}
}

func scanDoc(row rowScanner) (*models.Doc, error) {
	var doc models.Doc
	var docType, createdStr, updatedStr string
	var company, requester, operator, status, remark sql.NullString

	err := row.Scan(
		&doc.ID, &docType, &doc.DocNo, &doc.BizDate, &company, &requester,
		&operator, &status, &remark, &createdStr, &updatedStr,
	)
	if err != nil {
		return nil, translate(err, "scanning document")
	}

	doc.DocType = models.DocType(docType)
	doc.CompanyName = company.String
	doc.Requester = requester.String
	doc.Operator = operator.String
	doc.Status = models.ClaimStatus(status.String)
	doc.Remark = remark.String
	doc.CreatedAt = parseTimestamp(createdStr)
	doc.UpdatedAt = parseTimestamp(updatedStr)
	return &doc, nil
}

func orderBy(col exp.Orderable, dir models.SortDirection) exp.OrderedExpression {
	if dir == models.SortAsc {
		return col.Asc()
	}
	return col.Desc()
}
