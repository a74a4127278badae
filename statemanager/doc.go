/*
Package statemanager dispatches named actions from a closed registry.
SetState validates requested names up front and reports unknown ones immediately;
Run replays the validated selection in order as many times as it is called.
*/
package statemanager
