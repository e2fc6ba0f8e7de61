// Package interfaces defines the contracts between the audio relay core and
// the collaborators it drives but does not own.
//
// # Collaborators
//
// [PushToTalk] is polled once per controller iteration. [StatusIndicator]
// presents the station state: flashing red during bring-up, steady green once
// the link is armed, flashing red while transmitting. [Amplifier] gates the
// speaker so it is silent while the station transmits.
//
// [Recorder] receives every captured frame of a transmit burst and is told
// when the burst ends. Implementations must not block the audio path; the
// recording package wraps a file recorder in a bounded asynchronous queue.
//
// [Notifier] is told about each completed [Recording]. It is invoked from the
// controller's housekeeping hook through a dispatcher, never inline with
// audio I/O:
//
//	type mailNotifier struct{ to string }
//
//	func (m mailNotifier) Notify(ctx context.Context, rec interfaces.Recording) error {
//	    return sendMail(ctx, m.to, rec.Path)
//	}
//
// # Defaults
//
// Nop implementations are provided for every optional collaborator so the
// controller never has to check for nil.
//
// # Thread Safety
//
// PushToTalk, StatusIndicator and Amplifier are called from the controller
// goroutine only. Notifier implementations may be called from a dispatcher
// goroutine and must honour context cancellation.
package interfaces
