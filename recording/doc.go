// Package recording persists transmit bursts and announces them once they
// are complete.
//
// The pipeline has three stages, none of which may stall the audio path:
//
//   - [AsyncRecorder] accepts frames from the controller without blocking
//     and hands them to a writer goroutine through a bounded queue. Frames
//     that do not fit are dropped and counted.
//   - [WAVRecorder] writes each burst to its own 16-bit mono WAV file named
//     audio_<unix-millis>.wav and reports the finished [interfaces.Recording].
//   - [Dispatcher] queues finished recordings and, on each housekeeping tick,
//     hands at most one at a time to a [interfaces.Notifier] on its own
//     goroutine.
//
// [LogNotifier] and [ExecNotifier] are the notifiers shipped with the
// station; the latter runs an external command with the file path, which is
// how uploads or transcription are plugged in.
package recording
