package recipe

import (
	"github.com/docker/docker/api/types/strslice"

	"bakery/params"
)

// Instruction is one line of a stage. Shell forms carry Args, exec forms
// carry Exec. Flags hold instruction options such as --from and --chown.
// Note is the rationale shown by annotated renders and recipe docs.
type Instruction struct {
	Kind  Kind
	Args  []string
	Exec  strslice.StrSlice
	Flags params.Pairs
	Note  string
}

func Run(command string) Instruction {
	return Instruction{Kind: KindRun, Args: []string{command}}
}

func RunExec(argv ...string) Instruction {
	return Instruction{Kind: KindRun, Exec: strslice.StrSlice(argv)}
}

func Env(key, value string) Instruction {
	return Instruction{Kind: KindEnv, Args: []string{key, value}}
}

func Arg(name string) Instruction {
	return Instruction{Kind: KindArg, Args: []string{name}}
}

func ArgDefault(name, value string) Instruction {
	return Instruction{Kind: KindArg, Args: []string{name, value}}
}

func Label(key, value string) Instruction {
	return Instruction{Kind: KindLabel, Args: []string{key, value}}
}

func Copy(paths ...string) Instruction {
	return Instruction{Kind: KindCopy, Args: paths}
}

func Add(paths ...string) Instruction {
	return Instruction{Kind: KindAdd, Args: paths}
}

func Workdir(path string) Instruction {
	return Instruction{Kind: KindWorkdir, Args: []string{path}}
}

func User(name string) Instruction {
	return Instruction{Kind: KindUser, Args: []string{name}}
}

func Expose(port string) Instruction {
	return Instruction{Kind: KindExpose, Args: []string{port}}
}

func Volume(paths ...string) Instruction {
	return Instruction{Kind: KindVolume, Args: paths}
}

func Entrypoint(argv ...string) Instruction {
	return Instruction{Kind: KindEntrypoint, Exec: strslice.StrSlice(argv)}
}

func Cmd(argv ...string) Instruction {
	return Instruction{Kind: KindCmd, Exec: strslice.StrSlice(argv)}
}

func CmdShell(command string) Instruction {
	return Instruction{Kind: KindCmd, Args: []string{command}}
}

func Shell(argv ...string) Instruction {
	return Instruction{Kind: KindShell, Exec: strslice.StrSlice(argv)}
}

func StopSignal(signal string) Instruction {
	return Instruction{Kind: KindStopSignal, Args: []string{signal}}
}

// WithNote attaches rationale prose to the instruction.
func (in Instruction) WithNote(note string) Instruction {
	in.Note = note
	return in
}

// WithFlag sets an instruction option. The receiver's flag list is copied so
// shared literals stay untouched.
func (in Instruction) WithFlag(key, value string) Instruction {
	flags := make(params.Pairs, 0, len(in.Flags)+1)
	flags = append(flags, in.Flags...)
	flags = flags.Set(key, value)
	in.Flags = flags
	return in
}

// From marks a COPY as sourcing from another stage or image.
func (in Instruction) From(stage string) Instruction {
	return in.WithFlag("from", stage)
}

// Chown sets file ownership for COPY and ADD.
func (in Instruction) Chown(owner string) Instruction {
	return in.WithFlag("chown", owner)
}

func (in Instruction) flag(key string) (string, bool) {
	return in.Flags.Get(key)
}
