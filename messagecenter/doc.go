/*
Package messagecenter provides a named publish/subscribe message center.
Subscribers are zero-argument callbacks fanned out synchronously in registration
order, optionally relayed to an external broker through a bus.Relay.
*/
package messagecenter
