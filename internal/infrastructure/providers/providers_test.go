package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanlens/backend/internal/domain"
)

const offChocoBar = `{
  "status": 1,
  "code": "4006381333931",
  "product": {
    "product_name": "Choco Bar",
    "brands": "Acme",
    "manufacturing_places": "Pune",
    "categories": "Snacks, Chocolate",
    "generic_name": "Milk chocolate bar MRP Rs.199 only",
    "ingredients_text": "sugar, cocoa butter, milk solids",
    "quantity": "100 G",
    "countries": "India",
    "nutriments": {"energy": 2200, "energy_unit": "kJ", "sugars": 50.1, "sugars_value": 50.1},
    "images": {
      "front": {"display": {"en": "https://img.example/front_en.jpg"}},
      "back": {"display": "https://img.example/back.jpg"},
      "1": {"uploaded_t": 1500000000}
    }
  }
}`

func serve(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenFoodFacts_Lookup(t *testing.T) {
	server := serve(t, http.StatusOK, offChocoBar, func(r *http.Request) {
		assert.Equal(t, "/api/v0/product/4006381333931.json", r.URL.Path)
	})
	p := NewOpenFoodFacts(Options{BaseURL: server.URL})

	record, err := p.Lookup(context.Background(), "4006381333931")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "4006381333931", record.Barcode)
	assert.Equal(t, "EAN/UPC", record.Format)
	assert.Equal(t, "Choco Bar", record.ProductName)
	assert.Equal(t, "Acme", record.Brand)
	assert.Equal(t, "Pune", record.Manufacturer)
	assert.Equal(t, "Snacks, Chocolate", record.Category)
	assert.Equal(t, "Milk chocolate bar MRP Rs.199 only", record.Description)
	assert.Equal(t, []string{"sugar", "cocoa butter", "milk solids"}, record.Ingredients)
	assert.Equal(t, "100 G", record.NetWeightRaw)
	assert.Equal(t, "India", record.CountryOfOrigin)
	assert.Equal(t, []string{"https://img.example/back.jpg", "https://img.example/front_en.jpg"}, record.Images)
	assert.Equal(t, map[string]interface{}{"energy": 2200.0, "sugars": 50.1}, record.NutritionFacts)
	assert.Equal(t, OpenFoodFactsID, record.SourceProviderID)
	assert.Equal(t, "Open Food Facts", record.SourceProviderName)
	assert.Equal(t, 0.9, record.Confidence)
	assert.Equal(t, "Choco Bar", record.RawPayload["product_name"])
	assert.False(t, record.FetchedAt.IsZero())
}

func TestOpenFoodFacts_Misses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status zero", http.StatusOK, `{"status":0,"status_verbose":"product not found"}`},
		{"no product", http.StatusOK, `{"status":1}`},
		{"empty name", http.StatusOK, `{"status":1,"product":{"product_name":"   ","brands":"Acme"}}`},
		{"not found", http.StatusNotFound, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serve(t, tt.status, tt.body, nil)

			record, err := NewOpenFoodFacts(Options{BaseURL: server.URL}).Lookup(context.Background(), "123")

			assert.NoError(t, err)
			assert.Nil(t, record)
		})
	}
}

func TestOpenFoodFacts_Descriptor(t *testing.T) {
	d := NewOpenFoodFacts(Options{}).Descriptor()

	assert.Equal(t, OpenFoodFactsID, d.ID)
	assert.True(t, d.IsFree)
	assert.False(t, d.RequiresKey)
	assert.True(t, d.Available())
	assert.Contains(t, d.EndpointTemplate, OpenFoodFactsBaseURL)
}

func TestUPCItemDB_TrialLookup(t *testing.T) {
	body := `{"code":"OK","total":1,"items":[
		{"title":"Choco Bar","brand":"Acme","category":"Food","description":"Bar","images":["","https://img.example/a.jpg"],"size":"100g"},
		{"title":"Other"}
	]}`
	server := serve(t, http.StatusOK, body, func(r *http.Request) {
		assert.Equal(t, "/prod/trial/lookup", r.URL.Path)
		assert.Equal(t, "036000291452", r.URL.Query().Get("upc"))
		assert.Empty(t, r.Header.Get("user_key"))
	})

	record, err := NewUPCItemDB(Options{BaseURL: server.URL}).Lookup(context.Background(), "036000291452")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Choco Bar", record.ProductName)
	assert.Equal(t, "UPC", record.Format)
	assert.Equal(t, "Acme", record.Brand)
	assert.Equal(t, "100g", record.NetWeightRaw)
	assert.Equal(t, []string{"https://img.example/a.jpg"}, record.Images)
	assert.Equal(t, 0.8, record.Confidence)
	assert.Equal(t, "UPC Item DB", record.SourceProviderName)
}

func TestUPCItemDB_KeyedLookup(t *testing.T) {
	server := serve(t, http.StatusOK, `{"code":"OK","items":[{"title":"Choco Bar","image":"https://img.example/x.jpg"}]}`, func(r *http.Request) {
		assert.Equal(t, "/prod/v1/lookup", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("user_key"))
		assert.Equal(t, "3scale", r.Header.Get("key_type"))
	})

	record, err := NewUPCItemDB(Options{BaseURL: server.URL, APIKey: "secret"}).Lookup(context.Background(), "036000291452")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, []string{"https://img.example/x.jpg"}, record.Images)
}

func TestUPCItemDB_Misses(t *testing.T) {
	for _, body := range []string{
		`{"code":"OK","items":[]}`,
		`{"code":"INVALID_UPC","message":"Not a valid UPC code."}`,
		`{"code":"OK","items":[{"title":""}]}`,
	} {
		server := serve(t, http.StatusOK, body, nil)

		record, err := NewUPCItemDB(Options{BaseURL: server.URL}).Lookup(context.Background(), "123")

		assert.NoError(t, err, body)
		assert.Nil(t, record, body)
	}
}

func TestBarcodeLookup_Lookup(t *testing.T) {
	body := `{"products":[{"barcode_number":"4006381333931","barcode_format":"EAN-13","title":"Choco Bar",
		"brand":"Acme","manufacturer":"Acme Foods","category":"Food","description":"Bar",
		"images":["https://img.example/bl.jpg"],"size":"100 g","country":"IN"}]}`
	server := serve(t, http.StatusOK, body, func(r *http.Request) {
		assert.Equal(t, "/v3/products", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "4006381333931", q.Get("barcode"))
		assert.Equal(t, "y", q.Get("formatted"))
		assert.Equal(t, "secret", q.Get("key"))
	})

	record, err := NewBarcodeLookup(Options{BaseURL: server.URL, APIKey: "secret"}).Lookup(context.Background(), "4006381333931")

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Choco Bar", record.ProductName)
	assert.Equal(t, "EAN-13", record.Format)
	assert.Equal(t, "Acme Foods", record.Manufacturer)
	assert.Equal(t, "IN", record.CountryOfOrigin)
	assert.Equal(t, []string{"https://img.example/bl.jpg"}, record.Images)
	assert.Equal(t, 0.95, record.Confidence)
}

func TestBarcodeLookup_RequiresKey(t *testing.T) {
	p := NewBarcodeLookup(Options{})

	assert.False(t, p.Descriptor().Available())
	assert.Equal(t, "Requires API Key", p.Descriptor().Info().Status)

	record, err := p.Lookup(context.Background(), "4006381333931")
	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	keyed := NewBarcodeLookup(Options{APIKey: "secret"})
	assert.True(t, keyed.Descriptor().Available())
	assert.Equal(t, "Available", keyed.Descriptor().Info().Status)
}

func TestBarcodeLookup_EmptyProducts(t *testing.T) {
	server := serve(t, http.StatusOK, `{"products":[]}`, nil)

	record, err := NewBarcodeLookup(Options{BaseURL: server.URL, APIKey: "k"}).Lookup(context.Background(), "1")

	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestBuild(t *testing.T) {
	t.Run("default order", func(t *testing.T) {
		list, err := Build(nil, nil)

		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, OpenFoodFactsID, list[0].Descriptor().ID)
		assert.Equal(t, UPCItemDBID, list[1].Descriptor().ID)
		assert.Equal(t, BarcodeLookupID, list[2].Descriptor().ID)
	})

	t.Run("disabled and duplicate entries are skipped", func(t *testing.T) {
		list, err := Build(
			[]string{BarcodeLookupID, UPCItemDBID, BarcodeLookupID},
			map[string]Setting{
				UPCItemDBID:     {Enabled: false},
				BarcodeLookupID: {Enabled: true, Options: Options{APIKey: "k"}},
			},
		)

		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, BarcodeLookupID, list[0].Descriptor().ID)
		assert.Equal(t, "k", list[0].Descriptor().APIKey)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := Build([]string{"nope"}, nil)

		assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	})
}
