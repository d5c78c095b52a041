package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Request schemas, compiled once at startup. Validation runs before any
// handler logic touches the payload.
const (
	createMatchSchema = `{
		"type": "object",
		"required": ["team1Id", "team2Id", "toss"],
		"additionalProperties": false,
		"properties": {
			"team1Id": {"type": "string", "minLength": 1},
			"team2Id": {"type": "string", "minLength": 1},
			"totalOvers": {"type": "integer", "minimum": 1, "maximum": 50},
			"toss": {
				"type": "object",
				"required": ["winnerId", "choice"],
				"additionalProperties": false,
				"properties": {
					"winnerId": {"type": "string", "minLength": 1},
					"call": {"type": "string", "enum": ["heads", "tails"]},
					"choice": {"type": "string", "enum": ["batting", "bowling"]}
				}
			}
		}
	}`

	selectBatterSchema = `{
		"type": "object",
		"required": ["batterId"],
		"additionalProperties": false,
		"properties": {
			"batterId": {"type": "string", "minLength": 1},
			"name": {"type": "string"}
		}
	}`

	scoreRunsSchema = `{
		"type": "object",
		"required": ["runs"],
		"additionalProperties": false,
		"properties": {
			"runs": {"type": "integer", "minimum": 0, "maximum": 6}
		}
	}`

	scoreExtraSchema = `{
		"type": "object",
		"required": ["extraType"],
		"additionalProperties": false,
		"properties": {
			"extraType": {"type": "string", "enum": ["wide", "noball", "bye", "legbye"]},
			"runs": {"type": "integer", "minimum": 1, "maximum": 7}
		}
	}`

	wicketSchema = `{
		"type": "object",
		"required": ["dismissalType"],
		"additionalProperties": false,
		"properties": {
			"dismissalType": {"type": "string", "minLength": 1},
			"fielderName": {"type": "string"}
		}
	}`

	createTeamSchema = `{
		"type": "object",
		"required": ["name"],
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1}
		}
	}`

	addPlayerSchema = `{
		"type": "object",
		"required": ["name"],
		"additionalProperties": false,
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"role": {"type": "string"}
		}
	}`
)

type schemaSet struct {
	createMatch  *jsonschema.Schema
	selectBatter *jsonschema.Schema
	scoreRuns    *jsonschema.Schema
	scoreExtra   *jsonschema.Schema
	wicket       *jsonschema.Schema
	createTeam   *jsonschema.Schema
	addPlayer    *jsonschema.Schema
}

func compileSchemas() (*schemaSet, error) {
	compile := func(name, raw string) (*jsonschema.Schema, error) {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	var (
		set schemaSet
		err error
	)
	if set.createMatch, err = compile("create_match.json", createMatchSchema); err != nil {
		return nil, err
	}
	if set.selectBatter, err = compile("select_batter.json", selectBatterSchema); err != nil {
		return nil, err
	}
	if set.scoreRuns, err = compile("score_runs.json", scoreRunsSchema); err != nil {
		return nil, err
	}
	if set.scoreExtra, err = compile("score_extra.json", scoreExtraSchema); err != nil {
		return nil, err
	}
	if set.wicket, err = compile("wicket.json", wicketSchema); err != nil {
		return nil, err
	}
	if set.createTeam, err = compile("create_team.json", createTeamSchema); err != nil {
		return nil, err
	}
	if set.addPlayer, err = compile("add_player.json", addPlayerSchema); err != nil {
		return nil, err
	}
	return &set, nil
}

const maxBodyBytes = 64 << 10

// decodeValidated reads the request body, checks it against the schema,
// and unmarshals it into dst.
func decodeValidated(r *http.Request, schema *jsonschema.Schema, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
