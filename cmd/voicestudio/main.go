package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"voicestudio/internal/bootstrap"
	"voicestudio/internal/catalog"
	"voicestudio/internal/domain"
	"voicestudio/internal/logging"
)

const usage = `usage: voicestudio <command> [flags]

commands:
  speak       synthesize speech from text and save the audio
  transcribe  transcribe an audio file
  record      record from the microphone and transcribe it
  voices      list available synthesis voices
  languages   list available transcription languages
  health      check that the speech service is reachable
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "voicestudio: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("no command given")
	}

	_ = godotenv.Load()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	services, err := bootstrap.Build(logging.NewSink(logger))
	if err != nil {
		return err
	}
	defer func() {
		_ = services.Synthesis.Close()
		_ = services.Transcription.Close()
	}()

	ctx := context.Background()

	switch args[0] {
	case "speak":
		return runSpeak(ctx, services, args[1:])
	case "transcribe":
		return runTranscribe(ctx, services, args[1:])
	case "record":
		return runRecord(ctx, services, args[1:])
	case "voices":
		return runVoices(ctx, services)
	case "languages":
		return runLanguages(ctx, services)
	case "health":
		return services.Client.Health(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("VOICESTUDIO_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runSpeak(ctx context.Context, services bootstrap.Services, args []string) error {
	fs := flag.NewFlagSet("speak", flag.ExitOnError)
	text := fs.String("text", "", "text to synthesize")
	language := fs.String("lang", services.Config.Synthesis.DefaultLanguage, "language code")
	voice := fs.String("voice", "", "voice id (defaults to the first voice for the language)")
	speed := fs.Float64("speed", services.Config.Synthesis.DefaultSpeed, "speech speed, 0.5 to 2.0")
	out := fs.String("out", "", "output path (defaults to the server-suggested filename)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	selectedVoice := *voice
	if selectedVoice == "" {
		catalogs, err := catalog.Fetch(ctx, services.Client)
		if err != nil {
			return err
		}
		selectedVoice = catalogs.DefaultVoice(*language, nil)
	}

	services.Synthesis.SetParams(domain.SynthesisRequest{
		Text:     *text,
		Language: *language,
		Voice:    selectedVoice,
		Speed:    *speed,
	})
	if err := services.Synthesis.Generate(ctx); err != nil {
		return err
	}

	handle := services.Synthesis.Result()
	dest := *out
	if dest == "" {
		dest = filepath.Base(handle.Name())
	}
	if err := services.Synthesis.Download(dest); err != nil {
		return err
	}
	fmt.Printf("saved %s (%d bytes)\n", dest, len(handle.Bytes()))
	return nil
}

func runTranscribe(ctx context.Context, services bootstrap.Services, args []string) error {
	fs := flag.NewFlagSet("transcribe", flag.ExitOnError)
	path := fs.String("file", "", "audio file to transcribe")
	language := fs.String("lang", "auto", "language code, or auto")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("missing -file")
	}

	file, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer file.Close()

	services.Transcription.SetLanguage(*language)
	if err := services.Transcription.UploadFile(ctx, filepath.Base(*path), file); err != nil {
		return err
	}
	printTranscript(services.Transcription.Result())
	return nil
}

func runRecord(ctx context.Context, services bootstrap.Services, args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	language := fs.String("lang", "auto", "language code, or auto")
	if err := fs.Parse(args); err != nil {
		return err
	}

	services.Transcription.SetLanguage(*language)
	services.Transcription.SetMode(domain.ModeRecord)

	if err := services.Transcription.StartRecording(ctx); err != nil {
		return err
	}

	fmt.Println("recording... press Enter to stop")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')

	if err := services.Transcription.StopRecording(ctx); err != nil {
		return err
	}
	printTranscript(services.Transcription.Result())
	return nil
}

func runVoices(ctx context.Context, services bootstrap.Services) error {
	catalogs, err := catalog.Fetch(ctx, services.Client)
	if err != nil {
		return err
	}
	for _, lang := range catalogs.Languages() {
		for _, voice := range catalogs.Voices(lang.Code) {
			fmt.Printf("%s\t%s\t%s\n", lang.Code, voice.ID, voice.Label)
		}
	}
	return nil
}

func runLanguages(ctx context.Context, services bootstrap.Services) error {
	catalogs, err := catalog.Fetch(ctx, services.Client)
	if err != nil {
		return err
	}
	for _, lang := range catalogs.Languages() {
		fmt.Printf("%s\t%s\n", lang.Code, lang.Label)
	}
	return nil
}

func printTranscript(result *domain.TranscriptionResult) {
	if result == nil {
		return
	}
	fmt.Println(result.Text)
	if result.Language != "" {
		fmt.Printf("language: %s (%.0f%% confidence)\n", result.Language, result.LanguageProbability*100)
	}
	for _, segment := range result.Segments {
		fmt.Printf("[%6.2f - %6.2f] %s\n", segment.Start, segment.End, segment.Text)
	}
}
