package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"csf.practicafiscal.mx/internal/extractor"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s
}

func TestCreateAndGetClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "ABC850101XYZ")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateClient() returned empty id")
	}

	got, err := s.GetClient(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetClient() error = %v", err)
	}
	if got.Data.TaxpayerID != "ABC850101XYZ" {
		t.Errorf("TaxpayerID = %q, want %q", got.Data.TaxpayerID, "ABC850101XYZ")
	}
	if got.Data.Address != nil {
		t.Errorf("Address = %+v, want nil for fresh client", got.Data.Address)
	}
}

func TestGetClientNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetClient(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClient() error = %v, want ErrNotFound", err)
	}
}

func TestGetClientByTaxpayerID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "ABC850101XYZ")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	got, err := s.GetClientByTaxpayerID(ctx, "ABC850101XYZ")
	if err != nil {
		t.Fatalf("GetClientByTaxpayerID() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := s.GetClientByTaxpayerID(ctx, "XYZ900101AB1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown taxpayer id: error = %v, want ErrNotFound", err)
	}
}

func TestListClients(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateClient(ctx, "", "ABC850101XYZ"); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if _, err := s.CreateClient(ctx, "", "XYZ900101AB1"); err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	clients, err := s.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients() error = %v", err)
	}
	if len(clients) != 2 {
		t.Errorf("len = %d, want 2", len(clients))
	}
}

func TestMergeExtraction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	data := extractor.Result{
		TaxpayerID:         "ABC850101XYZ",
		GivenNames:         "JUAN CARLOS",
		RegistrationStatus: "ACTIVO",
		Address:            &extractor.Address{PostalCode: "06300", Municipality: "CUAUHTEMOC"},
		Activities: []extractor.Activity{
			{Order: 1, Description: "Comercio al por menor de abarrotes", Percentage: 100, StartDate: "01/08/2019"},
		},
		Regimes: []extractor.Regime{
			{Name: "Régimen de Incorporación Fiscal", StartDate: "01/08/2019"},
			{Name: "Régimen Sueldos y Salarios", StartDate: "01/01/2015", EndDate: "31/12/2018"},
		},
		Obligations: []extractor.Obligation{
			{Description: "Declaración anual de ISR", DueDescription: "A más tardar el 30 de abril", StartDate: "01/08/2019"},
		},
	}

	got, err := s.MergeExtraction(ctx, created.ID, data, 0)
	if err != nil {
		t.Fatalf("MergeExtraction() error = %v", err)
	}

	if got.Data.TaxpayerID != "ABC850101XYZ" {
		t.Errorf("TaxpayerID = %q, want filled from extraction", got.Data.TaxpayerID)
	}
	if got.Data.GivenNames != "JUAN CARLOS" || got.Data.RegistrationStatus != "ACTIVO" {
		t.Errorf("scalars = %+v", got.Data)
	}
	if got.Data.Address == nil || got.Data.Address.PostalCode != "06300" {
		t.Errorf("Address = %+v", got.Data.Address)
	}
	if len(got.Data.Activities) != 1 || got.Data.Activities[0].Percentage != 100 {
		t.Errorf("Activities = %+v", got.Data.Activities)
	}
	if len(got.Data.Regimes) != 2 {
		t.Fatalf("Regimes = %+v", got.Data.Regimes)
	}
	if !got.Data.Regimes[0].IsDefault || got.Data.Regimes[1].IsDefault {
		t.Errorf("default regime flags = %v, %v, want first only",
			got.Data.Regimes[0].IsDefault, got.Data.Regimes[1].IsDefault)
	}
	if len(got.Data.Obligations) != 1 {
		t.Errorf("Obligations = %+v", got.Data.Obligations)
	}
}

func TestMergeExtractionOverlay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "ABC850101XYZ")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	first := extractor.Result{
		GivenNames:         "JUAN CARLOS",
		RegistrationStatus: "ACTIVO",
		Regimes:            []extractor.Regime{{Name: "Régimen de Incorporación Fiscal", StartDate: "01/08/2019"}},
	}
	if _, err := s.MergeExtraction(ctx, created.ID, first, -1); err != nil {
		t.Fatalf("first merge error = %v", err)
	}

	// A later certificate with only a status change: the new value
	// overwrites, absent fields keep their stored values, and an empty
	// sequence leaves the stored one alone.
	second := extractor.Result{RegistrationStatus: "SUSPENDIDO"}
	got, err := s.MergeExtraction(ctx, created.ID, second, -1)
	if err != nil {
		t.Fatalf("second merge error = %v", err)
	}

	if got.Data.RegistrationStatus != "SUSPENDIDO" {
		t.Errorf("RegistrationStatus = %q, want %q", got.Data.RegistrationStatus, "SUSPENDIDO")
	}
	if got.Data.GivenNames != "JUAN CARLOS" {
		t.Errorf("GivenNames = %q, want kept from first merge", got.Data.GivenNames)
	}
	if len(got.Data.Regimes) != 1 {
		t.Errorf("Regimes = %+v, want kept from first merge", got.Data.Regimes)
	}
}

func TestMergeExtractionNeverReplacesTaxpayerID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "ABC850101XYZ")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	got, err := s.MergeExtraction(ctx, created.ID, extractor.Result{TaxpayerID: "XYZ900101AB1"}, -1)
	if err != nil {
		t.Fatalf("MergeExtraction() error = %v", err)
	}
	if got.Data.TaxpayerID != "ABC850101XYZ" {
		t.Errorf("TaxpayerID = %q, want original kept", got.Data.TaxpayerID)
	}
}

func TestMergeExtractionReplacesSequencesWholesale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "ABC850101XYZ")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}

	first := extractor.Result{Activities: []extractor.Activity{
		{Order: 1, Description: "Comercio al por menor de abarrotes", Percentage: 60, StartDate: "01/08/2019"},
		{Order: 2, Description: "Alquiler de inmuebles", Percentage: 40, StartDate: "01/08/2019"},
	}}
	if _, err := s.MergeExtraction(ctx, created.ID, first, -1); err != nil {
		t.Fatalf("first merge error = %v", err)
	}

	second := extractor.Result{Activities: []extractor.Activity{
		{Order: 1, Description: "Servicios de contabilidad y auditoría", Percentage: 100, StartDate: "01/01/2023"},
	}}
	got, err := s.MergeExtraction(ctx, created.ID, second, -1)
	if err != nil {
		t.Fatalf("second merge error = %v", err)
	}

	if len(got.Data.Activities) != 1 {
		t.Fatalf("Activities = %+v, want replaced wholesale", got.Data.Activities)
	}
	if got.Data.Activities[0].Description != "Servicios de contabilidad y auditoría" {
		t.Errorf("Activities[0] = %+v", got.Data.Activities[0])
	}
}

func TestMergeExtractionUnknownClient(t *testing.T) {
	s := newTestStore(t)

	_, err := s.MergeExtraction(context.Background(), "no-such-id", extractor.Result{}, -1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("MergeExtraction() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteClient(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateClient(ctx, "", "ABC850101XYZ")
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if _, err := s.MergeExtraction(ctx, created.ID, extractor.Result{
		Regimes: []extractor.Regime{{Name: "Régimen de Incorporación Fiscal", StartDate: "01/08/2019"}},
	}, -1); err != nil {
		t.Fatalf("merge error = %v", err)
	}

	if err := s.DeleteClient(ctx, created.ID); err != nil {
		t.Fatalf("DeleteClient() error = %v", err)
	}
	if _, err := s.GetClient(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClient() after delete: error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteClient(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteClient(): error = %v, want ErrNotFound", err)
	}
}
