package protocol

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/suffix-labs/hive-tx-go/pkg/hiveerr"
)

// operationNames maps operation id to name. The index is the numeric tag
// written on the wire.
var operationNames = []string{
	"vote",
	"comment",
	"transfer",
	"transfer_to_vesting",
	"withdraw_vesting",
	"limit_order_create",
	"limit_order_cancel",
	"feed_publish",
	"convert",
	"account_create",
	"account_update",
	"witness_update",
	"account_witness_vote",
	"account_witness_proxy",
	"pow",
	"custom",
	"report_over_production",
	"delete_comment",
	"custom_json",
	"comment_options",
	"set_withdraw_vesting_route",
	"limit_order_create2",
	"claim_account",
	"create_claimed_account",
	"request_account_recovery",
	"recover_account",
	"change_recovery_account",
	"escrow_transfer",
	"escrow_dispute",
	"escrow_release",
	"pow2",
	"escrow_approve",
	"transfer_to_savings",
	"transfer_from_savings",
	"cancel_transfer_from_savings",
	"custom_binary",
	"decline_voting_rights",
	"reset_account",
	"set_reset_account",
	"claim_reward_balance",
	"delegate_vesting_shares",
	"account_create_with_delegation",
	"witness_set_properties",
	"account_update2",
	"create_proposal",
	"update_proposal_votes",
	"remove_proposal",
	"update_proposal",
	"collateralized_convert",
	"recurrent_transfer",
	// virtual operations
	"fill_convert_request",
	"author_reward",
	"curation_reward",
	"comment_reward",
	"liquidity_reward",
	"interest",
	"fill_vesting_withdraw",
	"fill_order",
	"shutdown_witness",
	"fill_transfer_from_savings",
	"hardfork",
	"comment_payout_update",
	"return_vesting_delegation",
	"comment_benefactor_reward",
	"producer_reward",
	"clear_null_account_balance",
	"proposal_pay",
	"sps_fund",
	"hardfork_hive",
	"hardfork_hive_restore",
	"delayed_voting",
	"consolidate_treasury_balance",
	"effective_comment_vote",
	"ineffective_delete_comment",
	"sps_convert",
	"expired_account_notification",
	"changed_recovery_account",
	"transfer_to_vesting_completed",
	"pow_reward",
	"vesting_shares_split",
	"account_created",
	"fill_collateralized_convert_request",
	"system_warning",
	"fill_recurrent_transfer",
	"failed_recurrent_transfer",
	"limit_order_cancelled",
	"producer_missed",
	"proposal_fee",
	"collateralized_convert_immediate_conversion",
	"escrow_approved",
	"escrow_rejected",
	"proxy_cleared",
	"declined_voting_rights",
}

// FirstVirtualOperation is the id of the first virtual operation. Virtual
// operations are produced by the chain and never appear in transactions.
const FirstVirtualOperation = 50

var operationIDs = func() map[string]int {
	ids := make(map[string]int, len(operationNames))
	for id, name := range operationNames {
		ids[name] = id
	}
	return ids
}()

// OperationID returns the numeric tag of the named operation.
func OperationID(name string) (int, bool) {
	id, ok := operationIDs[name]
	return id, ok
}

// OperationName returns the name of operation id.
func OperationName(id int) (string, bool) {
	if id < 0 || id >= len(operationNames) {
		return "", false
	}
	return operationNames[id], true
}

// OperationNames lists every operation name in id order.
func OperationNames() []string {
	out := make([]string, len(operationNames))
	copy(out, operationNames)
	return out
}

// IsVirtual reports whether name is a virtual operation.
func IsVirtual(name string) bool {
	id, ok := operationIDs[name]
	return ok && id >= FirstVirtualOperation
}

// Operation is a named operation and its parameters. Params follow the
// chain's JSON field names; values may be Go values (Asset, *crypto.PublicKey,
// time.Time, integers) or their JSON forms.
type Operation struct {
	Name   string
	Params map[string]interface{}
}

// NewOperation builds an operation.
func NewOperation(name string, params map[string]interface{}) Operation {
	return Operation{Name: name, Params: params}
}

// MarshalJSON writes the ["name", {params}] form.
func (op Operation) MarshalJSON() ([]byte, error) {
	params := op.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	return json.Marshal([]interface{}{op.Name, params})
}

// UnmarshalJSON accepts ["name", {params}] and the {"type": "name_operation",
// "value": {params}} form returned by the appbase API. Numbers decode as
// json.Number so 64-bit values keep their precision.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return hiveerr.Malformed("operation must be [name, params], got %d elements", len(pair))
		}
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return hiveerr.MalformedCause(err, "operation name must be a string")
		}
		return op.set(name, pair[1])
	}

	var typed struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &typed); err != nil || typed.Type == "" {
		return hiveerr.Malformed("invalid operation %s", string(data))
	}
	return op.set(strings.TrimSuffix(typed.Type, "_operation"), typed.Value)
}

func (op *Operation) set(name string, raw json.RawMessage) error {
	params, err := DecodeParams(raw)
	if err != nil {
		return err
	}
	op.Name, op.Params = name, params
	return nil
}

// DecodeParams decodes a JSON object with json.Number numbers.
func DecodeParams(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var params map[string]interface{}
	if err := dec.Decode(&params); err != nil {
		return nil, hiveerr.MalformedCause(err, "operation params must be an object")
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return params, nil
}
