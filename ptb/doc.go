// Package ptb models a programmable transaction: a list of inputs and a flat
// sequence of commands whose arguments point at inputs, at earlier command
// results or at the gas coin.
//
// The Builder hands back an Argument for every input or command it adds, so
// emitters thread results directly into later commands:
//
//	tx := ptb.NewBuilder()
//	coins := tx.SplitCoins(ptb.GasCoin(), tx.PureU64(1000))
//	tx.TransferObjects([]ptb.Argument{coins.Nested(0)}, ptb.Sender())
//	program := tx.Build()
//
// Programs keep the sender as a placeholder until BindSender.
package ptb
