package log

// A LogContextAdder adds fields to every log entry while it is registered,
// for instance the current playback position.
type LogContextAdder interface {
	AddLogContext(entry *EntryZ)
}

var contexts []LogContextAdder

func AddContext(ctx LogContextAdder) {
	contexts = append(contexts, ctx)
}

func RemoveContext(ctx LogContextAdder) {
	for i, c := range contexts {
		if c == ctx {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}
