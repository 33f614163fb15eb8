// Package trust classifies hosted applications and gates host capabilities.
//
// Trust levels form a closed, ordered set:
//
//	default < trusted < internal
//
// Classification is an exact, case-sensitive match against that set. Anything
// else, including an empty or misspelled declaration, is classified as
// Default, so an application can never gain privilege through a malformed
// descriptor.
//
// Every capability reachable from hosted content has a minimum level recorded
// in a static table. A call is allowed iff the caller's level is at least the
// capability's minimum.
//
// Example:
//
//	level := trust.Classify("trusted")
//	if trust.IsAllowed(level, trust.CapSetContainerAppReady) {
//	    // never reached: setContainerAppReady requires internal
//	}
package trust
