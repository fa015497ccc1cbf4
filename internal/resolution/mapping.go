package resolution

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/patentbot/pkg/query"
	"github.com/JaimeStill/patentbot/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "resolution_sessions", "s").
	Project("id", "ID").
	Project("case_id", "CaseID").
	Project("operator", "Operator").
	Project("claims_list", "ClaimsList").
	Project("claim_iteration", "ClaimIteration").
	Project("your_choices", "YourChoices").
	Project("state", "State").
	Project("staged", "Staged").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

func scanSession(sc repository.Scanner) (Session, error) {
	var (
		s       Session
		claims  []byte
		choices []byte
		staged  sql.NullString
	)

	err := sc.Scan(
		&s.ID,
		&s.CaseID,
		&s.Operator,
		&claims,
		&s.ClaimIteration,
		&choices,
		&s.State,
		&staged,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}

	if err := json.Unmarshal(claims, &s.ClaimsList); err != nil {
		return s, fmt.Errorf("decode claims_list: %w", err)
	}
	if err := json.Unmarshal(choices, &s.YourChoices); err != nil {
		return s, fmt.Errorf("decode your_choices: %w", err)
	}
	if s.YourChoices == nil {
		s.YourChoices = make(map[string]Disposition)
	}
	if staged.Valid {
		d := Disposition(staged.String)
		s.Staged = &d
	}

	return s, nil
}

func stagedValue(d *Disposition) any {
	if d == nil {
		return nil
	}
	return string(*d)
}

func jsonValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
