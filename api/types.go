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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
	StatusCode int    `json:"status_code"`
}

// CreateProjectRequest is the body of POST /api/v0/projects
type CreateProjectRequest struct {
	Name             string           `json:"name"`
	Bio              string           `json:"bio"`
	LogoURI          string           `json:"logoURI"`
	BackdropURI      string           `json:"backdropURI"`
	GovernanceTokens []common.Address `json:"governanceTokens"`
}

// SetActiveRequest is the body of POST /api/v0/projects/{id}/active
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// StakeRequest is the body of the stake and unstake commands. Amount is
// ignored when completing an unstake.
type StakeRequest struct {
	Amount *uint256.Int   `json:"amount,omitempty"`
	Token  common.Address `json:"token"`
}

// CreateProposalRequest is the body of POST /api/v0/projects/{id}/proposals
type CreateProposalRequest struct {
	Quorum      *uint256.Int `json:"quorum"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
}

// VoteRequest is the body of POST /api/v0/proposals/{id}/vote
type VoteRequest struct {
	Support bool `json:"support"`
}

// IDResponse returns the ID of a created entity
type IDResponse struct {
	ID uint `json:"id"`
}

// AmountResponse returns the amount moved or counted by a command
type AmountResponse struct {
	Amount *uint256.Int `json:"amount"`
}

// StatusResponse returns the status of a proposal after a command
type StatusResponse struct {
	Status string `json:"status"`
}

// StakersResponse is returned by GET /api/v0/projects/{id}/stakers
type StakersResponse struct {
	Stakers []common.Address `json:"stakers"`
	Count   int              `json:"count"`
}

// HasVotedResponse is returned by GET /api/v0/proposals/{id}/votes/{voter}
type HasVotedResponse struct {
	Voter    common.Address `json:"voter"`
	HasVoted bool           `json:"hasVoted"`
}
