package recipe

// Kind identifies the instruction a model entry renders to. FROM is not a
// Kind: stages own their base image.
type Kind int

const (
	KindRun Kind = iota
	KindCopy
	KindAdd
	KindEnv
	KindArg
	KindLabel
	KindWorkdir
	KindUser
	KindExpose
	KindVolume
	KindHealthcheck
	KindEntrypoint
	KindCmd
	KindShell
	KindStopSignal
)

func (k Kind) String() string {
	switch k {
	case KindRun:
		return "RUN"
	case KindCopy:
		return "COPY"
	case KindAdd:
		return "ADD"
	case KindEnv:
		return "ENV"
	case KindArg:
		return "ARG"
	case KindLabel:
		return "LABEL"
	case KindWorkdir:
		return "WORKDIR"
	case KindUser:
		return "USER"
	case KindExpose:
		return "EXPOSE"
	case KindVolume:
		return "VOLUME"
	case KindHealthcheck:
		return "HEALTHCHECK"
	case KindEntrypoint:
		return "ENTRYPOINT"
	case KindCmd:
		return "CMD"
	case KindShell:
		return "SHELL"
	case KindStopSignal:
		return "STOPSIGNAL"
	default:
		return "UNKNOWN"
	}
}
