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

package main

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

func parseAddress(arg string) (common.Address, error) {
	if !common.IsHexAddress(arg) {
		return common.Address{}, fmt.Errorf("invalid address %q", arg)
	}
	return common.HexToAddress(arg), nil
}

func mintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mint <token> <holder> <amount>",
		Short: "Credit a holder balance in the custody vault (development use)",
		Args:  cobra.ExactArgs(3),
		RunE:  mintRun,
	}
}

func mintRun(cmd *cobra.Command, args []string) error {
	token, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	holder, err := parseAddress(args[1])
	if err != nil {
		return err
	}
	amount, err := uint256.FromDecimal(args[2])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[2], err)
	}
	if amount.IsZero() {
		return errors.New("amount must be positive")
	}
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	n, err := openNode(cmd.Context(), cfg, toolLogger())
	if err != nil {
		return err
	}
	defer n.Stop()
	vault := n.Custody()
	if err := vault.Mint(cmd.Context(), token, holder, amount); err != nil {
		return err
	}
	balance, err := vault.BalanceOf(cmd.Context(), token, holder)
	if err != nil {
		return err
	}
	fmt.Fprintf(
		cmd.OutOrStdout(),
		"minted %s of %s to %s, balance %s\n",
		amount.Dec(),
		token.Hex(),
		holder.Hex(),
		balance.Dec(),
	)
	return nil
}
