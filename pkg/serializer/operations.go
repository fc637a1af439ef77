package serializer

// operationSerializers builds the parameter serializer of every operation that
// may appear in a transaction. Field order is the wire order. pow, pow2,
// report_over_production and the virtual operations are deliberately absent.
func (r *Registry) operationSerializers() map[string]Serializer {
	asset := r.Asset
	authority := r.Authority
	price := r.Price
	extensions := Array(Void)
	proposalIDs := Array(Int64)

	return map[string]Serializer{
		"account_create": Object(
			F("fee", asset),
			F("creator", String),
			F("new_account_name", String),
			F("owner", authority),
			F("active", authority),
			F("posting", authority),
			F("memo_key", PublicKey),
			F("json_metadata", String),
		),
		"account_create_with_delegation": Object(
			F("fee", asset),
			F("delegation", asset),
			F("creator", String),
			F("new_account_name", String),
			F("owner", authority),
			F("active", authority),
			F("posting", authority),
			F("memo_key", PublicKey),
			F("json_metadata", String),
			F("extensions", extensions),
		),
		"account_update": Object(
			F("account", String),
			F("owner", Optional(authority)),
			F("active", Optional(authority)),
			F("posting", Optional(authority)),
			F("memo_key", PublicKey),
			F("json_metadata", String),
		),
		"account_update2": Object(
			F("account", String),
			F("owner", Optional(authority)),
			F("active", Optional(authority)),
			F("posting", Optional(authority)),
			F("memo_key", Optional(PublicKey)),
			F("json_metadata", String),
			F("posting_json_metadata", String),
			F("extensions", extensions),
		),
		"account_witness_proxy": Object(
			F("account", String),
			F("proxy", String),
		),
		"account_witness_vote": Object(
			F("account", String),
			F("witness", String),
			F("approve", Bool),
		),
		"cancel_transfer_from_savings": Object(
			F("from", String),
			F("request_id", UInt32),
		),
		"change_recovery_account": Object(
			F("account_to_recover", String),
			F("new_recovery_account", String),
			F("extensions", extensions),
		),
		"claim_account": Object(
			F("creator", String),
			F("fee", asset),
			F("extensions", extensions),
		),
		"claim_reward_balance": Object(
			F("account", String),
			F("reward_hive", asset),
			F("reward_hbd", asset),
			F("reward_vests", asset),
		),
		"collateralized_convert": Object(
			F("owner", String),
			F("requestid", UInt32),
			F("amount", asset),
		),
		"comment": Object(
			F("parent_author", String),
			F("parent_permlink", String),
			F("author", String),
			F("permlink", String),
			F("title", String),
			F("body", String),
			F("json_metadata", String),
		),
		"comment_options": Object(
			F("author", String),
			F("permlink", String),
			F("max_accepted_payout", asset),
			F("percent_hbd", UInt16),
			F("allow_votes", Bool),
			F("allow_curation_rewards", Bool),
			F("extensions", Array(StaticVariant(
				Object(F("beneficiaries", Array(r.Beneficiary))),
			))),
		),
		"convert": Object(
			F("owner", String),
			F("requestid", UInt32),
			F("amount", asset),
		),
		"create_claimed_account": Object(
			F("creator", String),
			F("new_account_name", String),
			F("owner", authority),
			F("active", authority),
			F("posting", authority),
			F("memo_key", PublicKey),
			F("json_metadata", String),
			F("extensions", extensions),
		),
		"create_proposal": Object(
			F("creator", String),
			F("receiver", String),
			F("start_date", Date),
			F("end_date", Date),
			F("daily_pay", asset),
			F("subject", String),
			F("permlink", String),
			F("extensions", extensions),
		),
		"custom": Object(
			F("required_auths", Array(String)),
			F("id", UInt16),
			F("data", VariableBinary),
		),
		"custom_binary": Object(
			F("required_owner_auths", Array(String)),
			F("required_active_auths", Array(String)),
			F("required_posting_auths", Array(String)),
			F("required_auths", Array(authority)),
			F("id", String),
			F("data", VariableBinary),
		),
		"custom_json": Object(
			F("required_auths", Array(String)),
			F("required_posting_auths", Array(String)),
			F("id", String),
			F("json", String),
		),
		"decline_voting_rights": Object(
			F("account", String),
			F("decline", Bool),
		),
		"delegate_vesting_shares": Object(
			F("delegator", String),
			F("delegatee", String),
			F("vesting_shares", asset),
		),
		"delete_comment": Object(
			F("author", String),
			F("permlink", String),
		),
		"escrow_approve": Object(
			F("from", String),
			F("to", String),
			F("agent", String),
			F("who", String),
			F("escrow_id", UInt32),
			F("approve", Bool),
		),
		"escrow_dispute": Object(
			F("from", String),
			F("to", String),
			F("agent", String),
			F("who", String),
			F("escrow_id", UInt32),
		),
		"escrow_release": Object(
			F("from", String),
			F("to", String),
			F("agent", String),
			F("who", String),
			F("receiver", String),
			F("escrow_id", UInt32),
			F("hbd_amount", asset),
			F("hive_amount", asset),
		),
		"escrow_transfer": Object(
			F("from", String),
			F("to", String),
			F("agent", String),
			F("escrow_id", UInt32),
			F("hbd_amount", asset),
			F("hive_amount", asset),
			F("fee", asset),
			F("ratification_deadline", Date),
			F("escrow_expiration", Date),
			F("json_meta", String),
		),
		"feed_publish": Object(
			F("publisher", String),
			F("exchange_rate", price),
		),
		"limit_order_cancel": Object(
			F("owner", String),
			F("orderid", UInt32),
		),
		"limit_order_create": Object(
			F("owner", String),
			F("orderid", UInt32),
			F("amount_to_sell", asset),
			F("min_to_receive", asset),
			F("fill_or_kill", Bool),
			F("expiration", Date),
		),
		"limit_order_create2": Object(
			F("owner", String),
			F("orderid", UInt32),
			F("amount_to_sell", asset),
			F("exchange_rate", price),
			F("fill_or_kill", Bool),
			F("expiration", Date),
		),
		"recover_account": Object(
			F("account_to_recover", String),
			F("new_owner_authority", authority),
			F("recent_owner_authority", authority),
			F("extensions", extensions),
		),
		"recurrent_transfer": Object(
			F("from", String),
			F("to", String),
			F("amount", asset),
			F("memo", String),
			F("recurrence", UInt16),
			F("executions", UInt16),
			F("extensions", extensions),
		),
		"remove_proposal": Object(
			F("proposal_owner", String),
			F("proposal_ids", proposalIDs),
			F("extensions", extensions),
		),
		"request_account_recovery": Object(
			F("recovery_account", String),
			F("account_to_recover", String),
			F("new_owner_authority", authority),
			F("extensions", extensions),
		),
		"reset_account": Object(
			F("reset_account", String),
			F("account_to_reset", String),
			F("new_owner_authority", authority),
		),
		"set_reset_account": Object(
			F("account", String),
			F("current_reset_account", String),
			F("reset_account", String),
		),
		"set_withdraw_vesting_route": Object(
			F("from_account", String),
			F("to_account", String),
			F("percent", UInt16),
			F("auto_vest", Bool),
		),
		"transfer": Object(
			F("from", String),
			F("to", String),
			F("amount", asset),
			F("memo", String),
		),
		"transfer_from_savings": Object(
			F("from", String),
			F("request_id", UInt32),
			F("to", String),
			F("amount", asset),
			F("memo", String),
		),
		"transfer_to_savings": Object(
			F("from", String),
			F("to", String),
			F("amount", asset),
			F("memo", String),
		),
		"transfer_to_vesting": Object(
			F("from", String),
			F("to", String),
			F("amount", asset),
		),
		"update_proposal": Object(
			F("proposal_id", UInt64),
			F("creator", String),
			F("daily_pay", asset),
			F("subject", String),
			F("permlink", String),
			F("extensions", Array(StaticVariant(
				Void,
				Object(F("end_date", Date)),
			))),
		),
		"update_proposal_votes": Object(
			F("voter", String),
			F("proposal_ids", proposalIDs),
			F("approve", Bool),
			F("extensions", extensions),
		),
		"vote": Object(
			F("voter", String),
			F("author", String),
			F("permlink", String),
			F("weight", Int16),
		),
		"withdraw_vesting": Object(
			F("account", String),
			F("vesting_shares", asset),
		),
		"witness_set_properties": Object(
			F("owner", String),
			F("props", FlatMap(String, VariableBinary)),
			F("extensions", extensions),
		),
		"witness_update": Object(
			F("owner", String),
			F("url", String),
			F("block_signing_key", PublicKey),
			F("props", r.ChainProperties),
			F("fee", asset),
		),
	}
}
