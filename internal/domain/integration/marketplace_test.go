package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// SourceName Tests
// ---------------------------------------------------------------------------

func TestParseSourceName(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceName
		wantErr bool
	}{
		{"taobao", SourceTaobao, false},
		{" Douyin ", SourceDouyin, false},
		{"shopify", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSourceName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSourceUnknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Normalization helper Tests
// ---------------------------------------------------------------------------

func TestJoinName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", JoinName("Ada", " Lovelace "))
	assert.Equal(t, "Ada", JoinName("Ada", ""))
	assert.Equal(t, UnknownCustomer, JoinName("", "  "))
	assert.Equal(t, UnknownCustomer, JoinName())
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Grace Brewster Hopper")
	require.NotNil(t, first)
	require.NotNil(t, last)
	assert.Equal(t, "Grace", *first)
	assert.Equal(t, "Brewster Hopper", *last)

	first, last = SplitName("Cher")
	assert.Equal(t, "Cher", *first)
	assert.Nil(t, last)

	first, last = SplitName("  ")
	assert.Nil(t, first)
	assert.Nil(t, last)
}

func TestParseDecimal(t *testing.T) {
	d := ParseDecimal("12.50")
	require.NotNil(t, d)
	assert.Equal(t, "12.5", d.String())

	assert.Nil(t, ParseDecimal(""))
	assert.Nil(t, ParseDecimal("abc"))
}

func TestSurrogateLineID_Deterministic(t *testing.T) {
	a := SurrogateLineID("V-100", "SKU1", "Mug", 0)
	b := SurrogateLineID("V-100", "SKU1", "Mug", 0)
	c := SurrogateLineID("V-100", "SKU1", "Mug", 1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 19)
}

func TestOrderBundle_Validate(t *testing.T) {
	ok := OrderBundle{
		Order: NormalizedOrder{SourceName: SourceTaobao, SourceKey: "V-100"},
		Items: []NormalizedLineItem{{RemoteLineID: "1"}, {RemoteLineID: "2"}},
	}
	assert.NoError(t, ok.Validate())

	noKey := ok
	noKey.Order.SourceKey = " "
	assert.ErrorIs(t, noKey.Validate(), ErrMalformedResponse)

	dup := ok
	dup.Items = []NormalizedLineItem{{RemoteLineID: "1"}, {RemoteLineID: "1"}}
	assert.ErrorIs(t, dup.Validate(), ErrMalformedResponse)

	blank := ok
	blank.Items = []NormalizedLineItem{{}}
	assert.ErrorIs(t, blank.Validate(), ErrMalformedResponse)
}

func TestUpstreamError_Unwrap(t *testing.T) {
	err := &UpstreamError{Kind: ErrAuthFailed, HTTPStatus: 401, Code: "27", Message: "Invalid session"}
	assert.True(t, errors.Is(err, ErrAuthFailed))
	assert.Contains(t, err.Error(), "HTTP 401 [27] Invalid session")
}

// ---------------------------------------------------------------------------
// AdapterRegistry Tests
// ---------------------------------------------------------------------------

type stubAdapter struct{ source SourceName }

func (s stubAdapter) Source() SourceName { return s.source }

func (s stubAdapter) Fetch(context.Context, uuid.UUID, MarketplaceCredentials) ([]OrderBundle, error) {
	return nil, nil
}

func (s stubAdapter) FetchOne(context.Context, uuid.UUID, MarketplaceCredentials, string) (*OrderBundle, error) {
	return nil, ErrOrderNotFound
}

func TestAdapterRegistry(t *testing.T) {
	r := NewAdapterRegistry(stubAdapter{SourceTaobao}, stubAdapter{SourceDouyin})

	a, err := r.Get(SourceDouyin)
	require.NoError(t, err)
	assert.Equal(t, SourceDouyin, a.Source())

	_, err = r.Get("etsy")
	assert.ErrorIs(t, err, ErrSourceUnknown)

	assert.Equal(t, []SourceName{SourceDouyin, SourceTaobao}, r.Sources())
}
