package services

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// TronService looks up TRC20 transfers for the manual crypto verification
// flow. It only translates chain data; all state decisions live in the
// reconciliation service.
type TronService struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type tronTransactionInfo struct {
	Hash          string `json:"hash"`
	ContractRet   string `json:"contractRet"`
	Confirmed     bool   `json:"confirmed"`
	Confirmations int    `json:"confirmations"`
	Timestamp     int64  `json:"timestamp"`
	TRC20Transfers []struct {
		AmountStr       string `json:"amount_str"`
		Decimals        int    `json:"decimals"`
		FromAddress     string `json:"from_address"`
		ToAddress       string `json:"to_address"`
		Symbol          string `json:"symbol"`
		ContractAddress string `json:"contract_address"`
	} `json:"trc20TransferInfo"`
}

// TronTransfer is a normalized TRC20 transfer extracted from a transaction.
type TronTransfer struct {
	Hash          string
	ToAddress     string
	Amount        float64
	Symbol        string
	Confirmations int
	Success       bool
}

func NewTronService() *TronService {
	return &TronService{
		BaseURL: "https://apilist.tronscanapi.com/api",
		APIKey:  os.Getenv("TRONGRID_API_KEY"),
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// GetTransfer fetches a transaction by hash and returns its TRC20 transfer
// to the given address, if any.
func (ts *TronService) GetTransfer(txHash, expectedAddress string) (*TronTransfer, error) {
	req, err := http.NewRequest("GET", ts.BaseURL+"/transaction-info?hash="+txHash, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if ts.APIKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", ts.APIKey)
	}

	resp, err := ts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chain lookup failed: %w", err)
	}
	defer resp.Body.Close()

	var info tronTransactionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode chain response: %w", err)
	}
	if info.Hash == "" {
		return nil, fmt.Errorf("transaction %s not found on chain", txHash)
	}

	transfer := &TronTransfer{
		Hash:          info.Hash,
		Confirmations: info.Confirmations,
		Success:       info.ContractRet == "SUCCESS",
	}

	for _, t := range info.TRC20Transfers {
		if !strings.EqualFold(t.ToAddress, expectedAddress) {
			continue
		}
		raw, err := strconv.ParseFloat(t.AmountStr, 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable transfer amount %q: %w", t.AmountStr, err)
		}
		transfer.ToAddress = t.ToAddress
		transfer.Amount = raw / math.Pow10(t.Decimals)
		transfer.Symbol = t.Symbol
		return transfer, nil
	}

	return nil, fmt.Errorf("transaction %s has no transfer to %s", txHash, expectedAddress)
}
