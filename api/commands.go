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
	"net/http"

	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// commandContext validates the caller and decodes the body shared by every
// command handler. It writes the error response and returns false when the
// request is malformed.
func commandContext(
	w http.ResponseWriter,
	r *http.Request,
	body any,
) (common.Address, bool) {
	caller, err := callerAddress(r)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return common.Address{}, false
	}
	if body != nil {
		if err := decodeBody(w, r, body); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return common.Address{}, false
		}
	}
	return caller, true
}

// handleCreateProject handles POST /api/v0/projects
func (a *API) handleCreateProject(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreateProjectRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	projectID, err := a.ledger.CreateProject(
		r.Context(),
		caller,
		ledger.CreateProjectParams{
			Name:             req.Name,
			Bio:              req.Bio,
			LogoURI:          req.LogoURI,
			BackdropURI:      req.BackdropURI,
			GovernanceTokens: req.GovernanceTokens,
		},
	)
	if err != nil {
		a.writeLedgerError(w, r, err, "create project")
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: projectID})
}

// handleSetProjectActive handles POST /api/v0/projects/{id}/active
func (a *API) handleSetProjectActive(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req SetActiveRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	if err := a.ledger.SetProjectActive(
		r.Context(),
		projectID,
		caller,
		req.Active,
	); err != nil {
		a.writeLedgerError(w, r, err, "update project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStake handles POST /api/v0/projects/{id}/stake. The caller is the
// holder whose tokens are staked.
func (a *API) handleStake(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req StakeRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	if err := a.ledger.Stake(
		r.Context(),
		projectID,
		req.Token,
		caller,
		req.Amount,
	); err != nil {
		a.writeLedgerError(w, r, err, "stake")
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{Amount: req.Amount})
}

// handleRequestUnstake handles POST /api/v0/projects/{id}/unstake
func (a *API) handleRequestUnstake(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req StakeRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	if err := a.ledger.RequestUnstake(
		r.Context(),
		projectID,
		req.Token,
		caller,
		req.Amount,
	); err != nil {
		a.writeLedgerError(w, r, err, "request unstake")
		return
	}
	writeJSON(w, http.StatusAccepted, AmountResponse{Amount: req.Amount})
}

// handleCompleteUnstake handles POST /api/v0/projects/{id}/unstake/complete
func (a *API) handleCompleteUnstake(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req StakeRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	released, err := a.ledger.CompleteUnstake(
		r.Context(),
		projectID,
		req.Token,
		caller,
	)
	if err != nil {
		a.writeLedgerError(w, r, err, "complete unstake")
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{Amount: released})
}

// handleCreateProposal handles POST /api/v0/projects/{id}/proposals
func (a *API) handleCreateProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req CreateProposalRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	proposalID, err := a.ledger.CreateProposal(
		r.Context(),
		projectID,
		caller,
		ledger.CreateProposalParams{
			Title:       req.Title,
			Description: req.Description,
			Quorum:      req.Quorum,
		},
	)
	if err != nil {
		a.writeLedgerError(w, r, err, "create proposal")
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: proposalID})
}

// handleVote handles POST /api/v0/proposals/{id}/vote and returns the
// weight counted for the vote
func (a *API) handleVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req VoteRequest
	caller, ok := commandContext(w, r, &req)
	if !ok {
		return
	}
	weight, err := a.ledger.Vote(r.Context(), proposalID, caller, req.Support)
	if err != nil {
		a.writeLedgerError(w, r, err, "vote")
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{Amount: weight})
}

// handleFinalize handles POST /api/v0/proposals/{id}/finalize. Finalizing
// needs no particular caller but the header is still required.
func (a *API) handleFinalize(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := commandContext(w, r, nil); !ok {
		return
	}
	status, err := a.ledger.Finalize(r.Context(), proposalID)
	if err != nil {
		a.writeLedgerError(w, r, err, "finalize proposal")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: status.String()})
}

// handleExecute handles POST /api/v0/proposals/{id}/execute
func (a *API) handleExecute(
	w http.ResponseWriter,
	r *http.Request,
) {
	proposalID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	caller, ok := commandContext(w, r, nil)
	if !ok {
		return
	}
	if err := a.ledger.Execute(r.Context(), proposalID, caller); err != nil {
		a.writeLedgerError(w, r, err, "execute proposal")
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		StatusResponse{Status: ledger.ProposalStatusExecuted.String()},
	)
}
