/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

// OwnerBalance represents one owner's vault balance
type OwnerBalance struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

// DepositResult represents the result of processing a deposit
type DepositResult struct {
	Success        bool   `json:"success"`
	Owner          string `json:"owner,omitempty"`
	Amount         uint64 `json:"amount,omitempty"`
	NewBalance     uint64 `json:"new_balance,omitempty"`
	TotalDeposited uint64 `json:"total_deposited,omitempty"`
	DepositIndex   uint64 `json:"deposit_index,omitempty"`
	Duplicate      bool   `json:"duplicate,omitempty"`
	Error          string `json:"error,omitempty"`
}

// WithdrawalResult represents the result of processing a withdrawal
type WithdrawalResult struct {
	Success         bool   `json:"success"`
	Owner           string `json:"owner,omitempty"`
	Amount          uint64 `json:"amount,omitempty"`
	NewBalance      uint64 `json:"new_balance,omitempty"`
	TotalDeposited  uint64 `json:"total_deposited,omitempty"`
	WithdrawalIndex uint64 `json:"withdrawal_index,omitempty"`
	Duplicate       bool   `json:"duplicate,omitempty"`
	Error           string `json:"error,omitempty"`
}
