package commonsvotes

import (
	"context"
	"encoding/json"
	"fmt"

	perr "opengov/internal/platform/errors"
	"opengov/internal/platform/validate"
	"opengov/internal/services/divisions/domain"
)

// ListDivisions fetches the current listing in one call. No pagination
func (c *Client) ListDivisions(ctx context.Context) ([]domain.DivisionRecord, error) {
	body, err := c.get(ctx, "/divisions.json/search")
	if err != nil {
		// a missing listing endpoint is an outage, not an absent record
		return nil, domain.Mark(domain.ErrSourceUnavailable, err)
	}

	var ws []divisionWire
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, domain.Mark(domain.ErrSourceMalformed, perr.Wrap(err, perr.ErrorCodeJSON, "decode division listing"))
	}
	out := make([]domain.DivisionRecord, 0, len(ws))
	for i, w := range ws {
		if err := validate.Struct(w); err != nil {
			return nil, domain.Mark(domain.ErrSourceMalformed, perr.Wrapf(err, perr.ErrorCodeValidation, "division listing entry %d", i))
		}
		out = append(out, w.record())
	}
	return out, nil
}

// FetchDivision fetches the full detail for one division
func (c *Client) FetchDivision(ctx context.Context, divisionID int) (domain.DivisionRecord, error) {
	body, err := c.get(ctx, fmt.Sprintf("/division/%d.json", divisionID))
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceNotFound, err)
		}
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceUnavailable, err)
	}

	var w *divisionWire
	if err := json.Unmarshal(body, &w); err != nil {
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceMalformed, perr.Wrapf(err, perr.ErrorCodeJSON, "decode division %d", divisionID))
	}
	if w == nil {
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceNotFound, perr.NotFoundf("division %d: empty document", divisionID))
	}
	if err := validate.Struct(w); err != nil {
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceMalformed, perr.Wrapf(err, perr.ErrorCodeValidation, "division %d", divisionID))
	}
	if w.DivisionID != divisionID {
		return domain.DivisionRecord{}, domain.Mark(domain.ErrSourceMalformed,
			perr.Newf(perr.ErrorCodeValidation, "division %d: document carries id %d", divisionID, w.DivisionID))
	}
	return w.record(), nil
}
