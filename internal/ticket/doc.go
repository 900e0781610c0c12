// Package ticket finds the direct ticket purchase link of an event.
//
// The resolver loads the event's source page, scores every outbound anchor,
// and follows at most a few redirects from the best one. A failure anywhere
// leaves the event without a ticket link; it never fails the record.
package ticket
