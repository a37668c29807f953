package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

// countryCodes maps common country names to the 2-letter prefix used in
// synthesized identifiers.
var countryCodes = map[string]string{
	"uk":                   "UK",
	"united kingdom":       "UK",
	"england":              "UK",
	"usa":                  "US",
	"united states":        "US",
	"japan":                "JP",
	"germany":              "DE",
	"france":               "FR",
	"spain":                "ES",
	"italy":                "IT",
	"china":                "CN",
	"netherlands":          "NL",
	"denmark":              "DK",
	"switzerland":          "CH",
	"canada":               "CA",
	"australia":            "AU",
	"brazil":               "BR",
	"india":                "IN",
	"singapore":            "SG",
	"united arab emirates": "AE",
	"uae":                  "AE",
	"norway":               "NO",
	"sweden":               "SE",
	"austria":              "AT",
	"portugal":             "PT",
	"mexico":               "MX",
	"south korea":          "KR",
}

// cityCodes maps common city names to the 2-letter middle segment.
var cityCodes = map[string]string{
	"london":      "LO",
	"tokyo":       "TO",
	"new york":    "NY",
	"paris":       "PA",
	"berlin":      "BE",
	"madrid":      "MA",
	"rome":        "RO",
	"beijing":     "BJ",
	"shanghai":    "SH",
	"amsterdam":   "AM",
	"rotterdam":   "RT",
	"copenhagen":  "CO",
	"zurich":      "ZU",
	"basel":       "BS",
	"chicago":     "CH",
	"los angeles": "LA",
	"seattle":     "SE",
	"boston":      "BO",
	"sydney":      "SY",
	"melbourne":   "ME",
	"barcelona":   "BA",
	"milan":       "MI",
	"vienna":      "VI",
	"oslo":        "OS",
	"stockholm":   "ST",
	"dubai":       "DU",
	"singapore":   "SI",
	"hong kong":   "HK",
	"toronto":     "TR",
}

// isKnownLocationToken reports whether token matches a city or country in
// the code tables.  Used by enrichment to spot location mentions in text.
func isKnownLocationToken(token string) bool {
	key := strings.ToLower(strings.TrimSpace(token))
	if _, ok := cityCodes[key]; ok {
		return true
	}
	_, ok := countryCodes[key]
	return ok
}

// codeFor resolves a 2-letter code for a location or name: table lookup
// first, otherwise the first letters uppercased with non-letters as X.
func codeFor(name string, table map[string]string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if code, ok := table[key]; ok {
		return code
	}
	return letterCode(name, 2)
}

// letterCode takes the first n letters of s uppercased, replacing
// non-letters with X and padding to length n.
func letterCode(s string, n int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if b.Len() >= n {
			break
		}
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else if !unicode.IsSpace(r) {
			b.WriteByte('X')
		}
	}
	for b.Len() < n {
		b.WriteByte('X')
	}
	return b.String()[:n]
}

// Synthesizer generates deterministic human-readable identifiers for new
// entities.  Uniqueness is enforced with a check-and-retry against the
// store; after the configured attempts the random suffix is widened.
type Synthesizer struct {
	store   store.DocumentStore
	retries int
	logger  logging.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthesizer builds the identifier stage.  retries <= 0 defaults to 3.
func NewSynthesizer(st store.DocumentStore, retries int, log logging.Logger) *Synthesizer {
	if retries <= 0 {
		retries = 3
	}
	return &Synthesizer{
		store:   st,
		retries: retries,
		logger:  log.Named("pipeline.identifier"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Synthesizer) digits(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 1
	for i := 0; i < n; i++ {
		max *= 10
	}
	return fmt.Sprintf("%0*d", n, s.rng.Intn(max))
}

// prefixFor computes the deterministic identifier prefix.
func prefixFor(name string, hq entity.GeoPoint) string {
	if hq.City != "" || hq.Country != "" {
		return codeFor(hq.Country, countryCodes) + codeFor(hq.City, cityCodes)
	}
	// Last-resort form used for local fallback entities.
	return letterCode(name, 2) + "XX"
}

// LocalID returns an unchecked fallback-form identifier, used only when the
// store itself is unreachable and no uniqueness check is possible.
func (s *Synthesizer) LocalID(name string) string {
	return letterCode(name, 2) + "XX" + s.digits(3)
}

// NewEntityID synthesizes an identifier that does not yet exist in
// collection.  Three-digit suffixes are tried first; on repeated collisions
// the suffix widens to six digits.
func (s *Synthesizer) NewEntityID(ctx context.Context, collection, name string, hq entity.GeoPoint) (string, error) {
	prefix := prefixFor(name, hq)

	for attempt := 0; attempt < s.retries; attempt++ {
		id := prefix + s.digits(3)
		free, err := s.isFree(ctx, collection, id)
		if err != nil {
			return "", err
		}
		if free {
			return id, nil
		}
		s.logger.Debug("identifier collision, retrying", logging.String("id", id))
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		id := prefix + s.digits(6)
		free, err := s.isFree(ctx, collection, id)
		if err != nil {
			return "", err
		}
		if free {
			return id, nil
		}
	}
	return "", errors.Newf(errors.ErrCodeIdentifierExhausted,
		"could not synthesize a free identifier with prefix %s in %s", prefix, collection)
}

func (s *Synthesizer) isFree(ctx context.Context, collection, id string) (bool, error) {
	_, err := s.store.Get(ctx, collection, id)
	if err == nil {
		return false, nil
	}
	if errors.IsNotFound(err) {
		return true, nil
	}
	return false, err
}
