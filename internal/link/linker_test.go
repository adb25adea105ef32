package link

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicegate/invoice-gate/internal/entity"
)

type fakeRepo struct {
	byRecordID    map[string]*entity.ParsedDocument
	byNumber      map[string]*entity.ParsedDocument // keyed lower-case
	byVendorTotal *entity.ParsedDocument
	failAll       bool
}

func (f *fakeRepo) POByRecordID(_ context.Context, id string) (*entity.ParsedDocument, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	return f.byRecordID[id], nil
}

func (f *fakeRepo) POByNumber(_ context.Context, number string) (*entity.ParsedDocument, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	return f.byNumber[strings.ToLower(number)], nil
}

func (f *fakeRepo) POByVendorTotal(_ context.Context, _ string, _ decimal.Decimal) (*entity.ParsedDocument, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	return f.byVendorTotal, nil
}

func newTestLinker(repo PORepository) *Linker {
	return NewLinker(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func total(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestFindPOExplicitIDWins(t *testing.T) {
	po := &entity.ParsedDocument{ID: "PO-1"}
	repo := &fakeRepo{
		byRecordID: map[string]*entity.ParsedDocument{"rec-42": po},
		byNumber:   map[string]*entity.ParsedDocument{"po-other": {ID: "PO-other"}},
	}
	inv := &entity.ParsedDocument{PONumber: "PO-other"}

	got, how := newTestLinker(repo).FindPO(context.Background(), inv, "rec-42")
	require.Same(t, po, got)
	assert.Equal(t, ByExplicitID, how)
}

func TestFindPOByNumberCaseInsensitive(t *testing.T) {
	po := &entity.ParsedDocument{ID: "PO-555"}
	repo := &fakeRepo{byNumber: map[string]*entity.ParsedDocument{"po-555": po}}
	inv := &entity.ParsedDocument{PONumber: " po-555 "}

	got, how := newTestLinker(repo).FindPO(context.Background(), inv, "")
	require.Same(t, po, got)
	assert.Equal(t, ByPONumber, how)
}

func TestFindPOByVendorAndTotal(t *testing.T) {
	po := &entity.ParsedDocument{ID: "PO-9"}
	repo := &fakeRepo{byVendorTotal: po}
	inv := &entity.ParsedDocument{Vendor: "Acme Corp", Total: total("1000.00")}

	got, how := newTestLinker(repo).FindPO(context.Background(), inv, "")
	require.Same(t, po, got)
	assert.Equal(t, ByVendorTotal, how)
}

func TestFindPOVendorTotalSkippedWhenTotalUnknown(t *testing.T) {
	repo := &fakeRepo{byVendorTotal: &entity.ParsedDocument{ID: "PO-9"}}
	inv := &entity.ParsedDocument{Vendor: "Acme Corp"} // no total

	got, how := newTestLinker(repo).FindPO(context.Background(), inv, "")
	assert.Nil(t, got)
	assert.Equal(t, NoLink, how)
}

func TestFindPOInvoiceIDReusedAsPONumber(t *testing.T) {
	po := &entity.ParsedDocument{ID: "PO-777"}
	repo := &fakeRepo{byNumber: map[string]*entity.ParsedDocument{"po-777": po}}
	inv := &entity.ParsedDocument{ID: "PO-777"}

	got, how := newTestLinker(repo).FindPO(context.Background(), inv, "")
	require.Same(t, po, got)
	assert.Equal(t, ByInvoiceID, how)
}

func TestFindPOStorageFailuresAreSwallowed(t *testing.T) {
	repo := &fakeRepo{failAll: true}
	inv := &entity.ParsedDocument{ID: "INV-1", PONumber: "PO-1", Vendor: "Acme", Total: total("10")}

	got, how := newTestLinker(repo).FindPO(context.Background(), inv, "rec-1")
	assert.Nil(t, got)
	assert.Equal(t, NoLink, how)
}

func TestFindPONilInvoice(t *testing.T) {
	got, how := newTestLinker(&fakeRepo{}).FindPO(context.Background(), nil, "")
	assert.Nil(t, got)
	assert.Equal(t, NoLink, how)
}
