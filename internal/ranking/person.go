package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
)

var wcaIDPattern = regexp.MustCompile(`^[0-9]{4}[A-Z]{4}[0-9]{2}$`)

// NormalizeWCAID upper-cases id and checks the YYYYNAME## shape.
func NormalizeWCAID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !wcaIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: invalid WCA ID %q", model.ErrInvalidInput, id)
	}
	return id, nil
}

type wcaPersonResponse struct {
	Person struct {
		WCAID string `json:"wca_id"`
		Name  string `json:"name"`
	} `json:"person"`
}

// LookupWCAPerson validates a WCA ID against the official WCA API and returns the competitor.
// Unknown IDs fail with model.ErrNotFound.
func (c *Client) LookupWCAPerson(ctx context.Context, id string) (Person, error) {
	id, err := NormalizeWCAID(id)
	if err != nil {
		return Person{}, err
	}
	opts := c.options()
	data, err := c.fetch(ctx, opts, opts.PersonURL+"/"+id, "wca-person/"+id, false)
	if err != nil {
		return Person{}, err
	}
	var resp wcaPersonResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return Person{}, fmt.Errorf("%w: decode person %s: %w", model.ErrRankingUnavailable, id, err)
	}
	if resp.Person.Name == "" {
		return Person{}, fmt.Errorf("%w: no name returned for WCA ID %s", model.ErrRankingUnavailable, id)
	}
	return Person{ID: id, Name: resp.Person.Name}, nil
}
