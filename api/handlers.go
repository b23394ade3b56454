// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/stakegov/internal/version"
	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
)

const maxRequestBodySize = 1 << 20

var (
	errInvalidID      = errors.New("invalid ID")
	errInvalidAddress = errors.New("invalid address")
	errMissingCaller  = errors.New("missing or invalid " + CallerHeader + " header")
)

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
		RequestID:  requestID(r.Context()),
	})
}

// errorStatus maps a ledger error kind to an HTTP status
func errorStatus(err error) int {
	switch ledger.ErrorKind(err) {
	case ledger.ErrInvalidInput:
		return http.StatusBadRequest
	case ledger.ErrNotFound:
		return http.StatusNotFound
	case ledger.ErrUnauthorized:
		return http.StatusForbidden
	case ledger.ErrStateConflict, ledger.ErrTimingViolation:
		return http.StatusConflict
	case ledger.ErrInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ledger.ErrTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeLedgerError writes the response for an error returned by the ledger.
// Errors outside the ledger taxonomy are logged and reported without detail.
func (a *API) writeLedgerError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	action string,
) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"failed to "+action,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeError(w, r, status, "failed to "+action)
		return
	}
	writeError(w, r, status, err.Error())
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, r.PathValue(name))
	}
	return uint(id), nil
}

func parseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %q", errInvalidAddress, value)
	}
	return common.HexToAddress(value), nil
}

// callerAddress returns the authenticated caller of a command
func callerAddress(r *http.Request) (common.Address, error) {
	caller, err := parseAddress(r.Header.Get(CallerHeader))
	if err != nil {
		return common.Address{}, errMissingCaller
	}
	return caller, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// handleRoot handles GET / and returns API metadata
func (a *API) handleRoot(
	w http.ResponseWriter,
	r *http.Request,
) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "no such route")
		return
	}
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "stakegov",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health
func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleListProjects handles GET /api/v0/projects
func (a *API) handleListProjects(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	projects, err := a.ledger.ListProjects()
	if err != nil {
		a.writeLedgerError(w, r, err, "list projects")
		return
	}
	SetPaginationHeaders(w, len(projects), params)
	writeJSON(w, http.StatusOK, paginate(projects, params))
}

// handleGetProject handles GET /api/v0/projects/{id}
func (a *API) handleGetProject(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	project, err := a.ledger.GetProject(projectID)
	if err != nil {
		a.writeLedgerError(w, r, err, "get project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleProjectProposals handles GET /api/v0/projects/{id}/proposals
func (a *API) handleProjectProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	proposals, err := a.ledger.ListProposals(projectID)
	if err != nil {
		a.writeLedgerError(w, r, err, "list proposals")
		return
	}
	SetPaginationHeaders(w, len(proposals), params)
	writeJSON(w, http.StatusOK, paginate(proposals, params))
}

// handleProjectActivities handles GET /api/v0/projects/{id}/activities. The
// log is returned oldest first unless order=desc is given.
func (a *API) handleProjectActivities(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	activities, err := a.ledger.ListActivities(projectID)
	if err != nil {
		a.writeLedgerError(w, r, err, "list activities")
		return
	}
	SetPaginationHeaders(w, len(activities), params)
	writeJSON(w, http.StatusOK, paginate(activities, params))
}

// handleProjectStakers handles GET /api/v0/projects/{id}/stakers
func (a *API) handleProjectStakers(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stakers, err := a.ledger.Stakers(projectID)
	if err != nil {
		a.writeLedgerError(w, r, err, "list stakers")
		return
	}
	if stakers == nil {
		stakers = []common.Address{}
	}
	writeJSON(w, http.StatusOK, StakersResponse{
		Stakers: stakers,
		Count:   len(stakers),
	})
}

// handleUserStake handles GET /api/v0/projects/{id}/stakes/{holder}
func (a *API) handleUserStake(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	holder, err := parseAddress(r.PathValue("holder"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stake, err := a.ledger.GetUserStake(projectID, holder)
	if err != nil {
		a.writeLedgerError(w, r, err, "get stake")
		return
	}
	writeJSON(w, http.StatusOK, stake)
}

// handleAudit handles GET /api/v0/projects/{id}/audit
func (a *API) handleAudit(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	report, err := a.ledger.Audit(r.Context(), projectID)
	if err != nil {
		a.writeLedgerError(w, r, err, "audit project")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleGetProposal handles GET /api/v0/proposals/{id}
func (a *API) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	proposal, err := a.ledger.GetProposal(proposalID)
	if err != nil {
		a.writeLedgerError(w, r, err, "get proposal")
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// handleListVotes handles GET /api/v0/proposals/{id}/votes
func (a *API) handleListVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	votes, err := a.ledger.ListVotes(proposalID)
	if err != nil {
		a.writeLedgerError(w, r, err, "list votes")
		return
	}
	SetPaginationHeaders(w, len(votes), params)
	writeJSON(w, http.StatusOK, paginate(votes, params))
}

// handleHasVoted handles GET /api/v0/proposals/{id}/votes/{voter}
func (a *API) handleHasVoted(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	voter, err := parseAddress(r.PathValue("voter"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	voted, err := a.ledger.HasVoted(proposalID, voter)
	if err != nil {
		a.writeLedgerError(w, r, err, "check vote")
		return
	}
	writeJSON(w, http.StatusOK, HasVotedResponse{
		Voter:    voter,
		HasVoted: voted,
	})
}
