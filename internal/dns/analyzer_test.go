package dns

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/foxcpp/go-mockdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverFor(zones map[string]mockdns.Zone) *mockdns.Resolver {
	return &mockdns.Resolver{Zones: zones}
}

func TestAnalyze_MXSortedByPreference(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{
		"example.com.": {
			MX: []net.MX{
				{Host: "mx2.example.com.", Pref: 20},
				{Host: "mx1.example.com.", Pref: 10},
			},
		},
	}))

	rs, err := a.Analyze(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"mx1.example.com", "mx2.example.com"}, rs.MXHosts)
	assert.False(t, rs.HasMailARecord)
	assert.False(t, rs.HasSPFRecord)
}

func TestAnalyze_NoMXRecordsIsNotAnError(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{
		"mail.clean.com.": {A: []string{"192.0.2.10"}},
	}))

	rs, err := a.Analyze(context.Background(), "clean.com")
	require.NoError(t, err)

	assert.Empty(t, rs.MXHosts)
	assert.True(t, rs.HasMailARecord)
	assert.False(t, rs.HasSPFRecord)
}

func TestAnalyze_SPFDetection(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{
		"example.com.": {
			TXT: []string{
				"google-site-verification=abc123",
				"v=spf1 mx a ip4:192.0.2.10 ~all",
			},
		},
	}))

	rs, err := a.Analyze(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, rs.HasSPFRecord)
}

func TestDetectConflicts_EachKnownProvider(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mxHost   string
		provider string
	}{
		{"mx1.mail.ovh.net", "OVH MX Plan"},
		{"aspmx.l.google.com", "Google Workspace"},
		{"alt1.aspmx.l.googlemail.com", "Google Workspace"},
		{"example-com.mail.protection.outlook.com", "Microsoft 365"},
		{"mx.zoho.com", "Zoho Mail"},
		{"mx.zoho.eu", "Zoho Mail"},
		{"mx.yandex.net", "Yandex Mail"},
	}

	for _, tt := range tests {
		t.Run(tt.mxHost, func(t *testing.T) {
			t.Parallel()
			rs := &RecordSet{
				Domain:         "example.com",
				MXHosts:        []string{tt.mxHost},
				HasMailARecord: true,
				HasSPFRecord:   true,
			}

			conflicts := DetectConflicts(rs)
			require.Len(t, conflicts, 1, "expected exactly one conflict for %s", tt.mxHost)
			assert.Equal(t, tt.provider, conflicts[0].Provider)
			assert.Equal(t, tt.mxHost, conflicts[0].Evidence)
			assert.NotEmpty(t, conflicts[0].Remediation)
			assert.False(t, conflicts[0].Advisory)
		})
	}
}

func TestDetectConflicts_MultipleProvidersAllSurfaced(t *testing.T) {
	t.Parallel()
	rs := &RecordSet{
		Domain:         "example.com",
		MXHosts:        []string{"mx1.mail.ovh.net", "aspmx.l.google.com"},
		HasMailARecord: true,
		HasSPFRecord:   true,
	}

	conflicts := DetectConflicts(rs)
	require.Len(t, conflicts, 2)

	providers := []string{conflicts[0].Provider, conflicts[1].Provider}
	assert.Contains(t, providers, "OVH MX Plan")
	assert.Contains(t, providers, "Google Workspace")
}

func TestDetectConflicts_SameProviderReportedOncePerHost(t *testing.T) {
	t.Parallel()
	// This hostname matches both the protection.outlook.com and the
	// outlook.com pattern; the provider must not be duplicated.
	rs := &RecordSet{
		Domain:         "example.com",
		MXHosts:        []string{"example-com.mail.protection.outlook.com"},
		HasMailARecord: true,
		HasSPFRecord:   true,
	}

	conflicts := DetectConflicts(rs)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Microsoft 365", conflicts[0].Provider)
}

func TestDetectConflicts_Advisories(t *testing.T) {
	t.Parallel()
	rs := &RecordSet{Domain: "example.com"}

	conflicts := DetectConflicts(rs)
	require.Len(t, conflicts, 2)
	for _, c := range conflicts {
		assert.True(t, c.Advisory)
		assert.Empty(t, c.Provider)
	}
	assert.Empty(t, Blocking(conflicts))
}

func TestEndToEnd_OVHConflict(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{
		"example.com.": {
			MX:  []net.MX{{Host: "mx1.mail.ovh.net.", Pref: 1}},
			TXT: []string{"v=spf1 include:mx.ovh.com ~all"},
		},
		"mail.example.com.": {A: []string{"192.0.2.7"}},
	}))

	rs, err := a.Analyze(context.Background(), "example.com")
	require.NoError(t, err)

	conflicts := DetectConflicts(rs)
	blocking := Blocking(conflicts)
	require.Len(t, blocking, 1)
	assert.Equal(t, "OVH MX Plan", blocking[0].Provider)
	assert.Equal(t, "mx1.mail.ovh.net", blocking[0].Evidence)
}

func TestEndToEnd_CleanDomainAdvisoryOnly(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{
		"mail.clean.com.": {A: []string{"192.0.2.10"}},
	}))

	rs, err := a.Analyze(context.Background(), "clean.com")
	require.NoError(t, err)

	conflicts := DetectConflicts(rs)
	assert.Empty(t, Blocking(conflicts))

	// The only finding is the missing SPF advisory.
	require.Len(t, conflicts, 1)
	assert.True(t, conflicts[0].Advisory)
	assert.Contains(t, conflicts[0].Remediation, "spf1")
}

// hostSequenceResolver replays canned LookupHost answers, sticking on the
// last one.
type hostSequenceResolver struct {
	answers [][]string
	calls   int
}

func (r *hostSequenceResolver) LookupHost(_ context.Context, _ string) ([]string, error) {
	i := r.calls
	r.calls++
	if i >= len(r.answers) {
		i = len(r.answers) - 1
	}
	return r.answers[i], nil
}

func (r *hostSequenceResolver) LookupMX(context.Context, string) ([]*net.MX, error) {
	return nil, nil
}

func (r *hostSequenceResolver) LookupTXT(context.Context, string) ([]string, error) {
	return nil, nil
}

func (r *hostSequenceResolver) LookupNS(context.Context, string) ([]*net.NS, error) {
	return nil, nil
}

func TestWaitForPropagation_SucceedsOnceRecordAppears(t *testing.T) {
	t.Parallel()
	r := &hostSequenceResolver{answers: [][]string{
		{"198.51.100.1"},
		{"198.51.100.1"},
		{"198.51.100.1", "192.0.2.7"},
	}}

	err := NewAnalyzer(r).WaitForPropagation(context.Background(), "example.com", "192.0.2.7", time.Millisecond, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, r.calls)
}

func TestWaitForPropagation_TimesOutOnStaleAnswer(t *testing.T) {
	t.Parallel()
	r := &hostSequenceResolver{answers: [][]string{{"198.51.100.1"}}}

	err := NewAnalyzer(r).WaitForPropagation(context.Background(), "example.com", "192.0.2.7", time.Millisecond, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not 192.0.2.7")
	assert.Equal(t, 3, r.calls)
}

func TestWaitForPropagation_MissingRecordKeepsPolling(t *testing.T) {
	t.Parallel()
	a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{}))

	err := a.WaitForPropagation(context.Background(), "example.com", "192.0.2.7", time.Millisecond, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not resolve yet")
}

func TestDetectNameserverProvider(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ns       string
		expected string
	}{
		{"dns200.anycast.me.ovh.net.", "ovh"},
		{"tina.ns.cloudflare.com.", "cloudflare"},
		{"ns1.digitalocean.com.", "digitalocean"},
		{"ns-1234.awsdns-12.org.", "route53"},
		{"dns1.registrar-servers.namecheap.com.", "namecheap"},
		{"ns.example-registrar.test.", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			a := NewAnalyzer(resolverFor(map[string]mockdns.Zone{
				"example.com.": {NS: []net.NS{{Host: tt.ns}}},
			}))

			got := a.DetectNameserverProvider(context.Background(), "example.com")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDesiredRecords(t *testing.T) {
	t.Parallel()
	records := DesiredRecords("example.com", "192.0.2.7", 3600)
	require.Len(t, records, 6)

	var required []Record
	for _, r := range records {
		if r.Required {
			required = append(required, r)
		}
	}
	require.Len(t, required, 3)

	assert.Equal(t, "A", required[0].Type)
	assert.Equal(t, "192.0.2.7", required[0].Content)
	assert.Equal(t, "mail.example.com", required[0].FQName("example.com"))

	assert.Equal(t, "MX", required[1].Type)
	assert.Equal(t, "mail.example.com", required[1].Content)
	assert.Equal(t, 10, required[1].Priority)
	assert.Equal(t, "example.com", required[1].FQName("example.com"))

	assert.Equal(t, "TXT", required[2].Type)
	assert.Contains(t, required[2].Content, "v=spf1")
	assert.Contains(t, required[2].Content, "ip4:192.0.2.7")
}
