package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sparsh2712/DataPipeline/internal/harvest"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const listingPage = `<html><body>
<ul id="leftNav">
  <li><a data-name="Insider_Trading" href="/companies-listing/corporate-filings-insider-trading">Insider Trading</a></li>
  <li><a data-name="SAST_Reg29" href="/companies-listing/corporate-filings-regulation-29-promoters">Reg 29</a></li>
  <li><a href="/no-name">Missing data-name</a></li>
  <li><a data-name="Empty">No href</a></li>
  <li><a data-name="Insider_Trading" href="/duplicate">Dup</a></li>
</ul>
<ul id="other"><li><a data-name="Ignored" href="/x">x</a></li></ul>
</body></html>`

func TestParseNav(t *testing.T) {
	links, err := ParseNav([]byte(listingPage))
	require.NoError(t, err)
	assert.Equal(t, []Link{
		{Name: "Insider_Trading", Href: "/companies-listing/corporate-filings-insider-trading"},
		{Name: "SAST_Reg29", Href: "/companies-listing/corporate-filings-regulation-29-promoters"},
	}, links)
}

func TestParseNav_NoMenu(t *testing.T) {
	_, err := ParseNav([]byte(`<html><body><div id="app"></div></body></html>`))
	assert.ErrorIs(t, err, ErrNoNav)
}

func TestSkeleton(t *testing.T) {
	out, err := Skeleton([]Link{
		{Name: "Insider_Trading", Href: "/companies-listing/corporate-filings-insider-trading"},
		{Name: "SAST_Reg29", Href: "/companies-listing/corporate-filings-regulation-29-promoters"},
	})
	require.NoError(t, err)
	assert.Equal(t, `Insider_Trading:
  endpoint: /companies-listing/corporate-filings-insider-trading
  params: {}
SAST_Reg29:
  endpoint: /companies-listing/corporate-filings-regulation-29-promoters
  params: {}
`, string(out))

	var decoded map[string]struct {
		Endpoint string   `yaml:"endpoint"`
		Params   map[string]any `yaml:"params"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Len(t, decoded, 2)
	assert.Empty(t, decoded["SAST_Reg29"].Params)
}

type pageFunc func(ctx context.Context, path string) ([]byte, error)

func (f pageFunc) FetchPage(ctx context.Context, path string) ([]byte, error) { return f(ctx, path) }

func TestDiscover(t *testing.T) {
	var requested string
	f := pageFunc(func(_ context.Context, path string) ([]byte, error) {
		requested = path
		return []byte(listingPage), nil
	})
	out, err := Discover(context.Background(), f, "/companies-listing/corporate-filings-insider-trading")
	require.NoError(t, err)
	assert.Equal(t, "/companies-listing/corporate-filings-insider-trading", requested)
	assert.Contains(t, string(out), "SAST_Reg29:")
}

func TestDiscover_FetchError(t *testing.T) {
	f := pageFunc(func(context.Context, string) ([]byte, error) { return nil, errors.New("http 403") })
	_, err := Discover(context.Background(), f, "/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovery: fetch /x")
}

func TestSkeleton_LoadsAsDescriptors(t *testing.T) {
	out, err := Skeleton([]Link{{Name: "Insider_Trading", Href: "/companies-listing/corporate-filings-insider-trading"}})
	require.NoError(t, err)

	ds, err := harvest.ParseDescriptors(out)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "Insider_Trading", ds[0].Name)
	assert.Empty(t, ds[0].Params)
}
