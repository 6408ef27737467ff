package application

import "fmt"

// User facing replies
const (
	replyWelcome = "Hiya! I'm your Spotify Skunk bot 🦨. /createplaylist to add songs to your playlist!"
	replyHelp    = "Here are the commands you can use:\n" +
		"/start - Start the bot\n" +
		"/createplaylist - Create a new playlist\n" +
		"/changeplaylistname - Change the name of the playlist\n" +
		"/changeplaylistimage - Change the cover image of the playlist\n" +
		"/resetplaylist - Forget the playlist linked to this chat\n" +
		"/unlink - Unlink your Spotify account\n" +
		"/playlistlink - Get the link to the playlist\n" +
		"/help - Show this message\n" +
		"\nJust send me a Spotify track link to add it to your playlist!"

	replyNotAuthorized       = "You are not authorized for this playlist process."
	replyPlaylistExists      = "A playlist has already been created for this chat."
	replyAlreadyCreating     = "You are already in the process of creating a playlist."
	replyAuthorizePrefix     = "click this to authorize the bot:"
	replyEnterPlaylistName   = "Please enter a name for your new playlist:"
	replyAuthorizedEnterName = "Enter a name for your new playlist"
	replyCreatePlaylistFail  = "Failed to create the playlist. Please try again later."
	replyRenameFail          = "Failed to change the playlist name. Please try again later."
	replyWaitForCreation     = "You are in the process of creating a playlist. Please wait until it's done before sending links."
	replyAddTrackFail        = "Failed to add the track. Make sure you have the correct permissions or that the Playlist still exist."
	replyAddTrackScope       = "Failed to add the track: the bot is missing a Spotify permission. Use /unlink and authorize again."
	replyNoPlaylistCreate    = "Please create a new playlist using /createplaylist "
	replySendNewImage        = "Please send the new image for your playlist:"
	replyEnterNewName        = "Please enter the new name for your playlist:"
	replyNoPlaylistFound     = "No playlist found for this chat. Create one with /createplaylist."
	replyNoPlaylist          = "No playlist found for this chat."
	replyReset               = "The current playlist has been reset. You can create a new playlist with /createplaylist."
	replyResetFail           = "Failed to reset the playlist in the database."
	replyUnlinked            = "Your Spotify credentials have been unlinked successfully."
	replyUnlinkNotFound      = "Failed to unlink your Spotify credentials: credentials not found."
	replyUnlinkFail          = "Failed to unlink your Spotify credentials. Please try again later."
	replyProcessingImage     = "Processing your image, please wait..."
	replyImageTooLarge       = "Image is too large. Please use an image less than 256KB."
	replyCoverSet            = "Playlist cover image set successfully!"
	replyCoverFail           = "Failed to set the playlist cover image. Please try again later."
	replyCoverScope          = "Failed to set the playlist cover image: the bot is missing a Spotify permission. Use /unlink and authorize again."
	replyUploadTimeout       = "Image upload timed out. Please try again."
	replyGenericFailure      = "Something went wrong. Please try again later."

	reactionTrackAdded = "👍"
)

func replyPlaylistCreated(name string) string {
	return fmt.Sprintf("Created new playlist: %s. Now please send me a cool image to set as your playlist cover 😎.", name)
}

func replyPlaylistRenamed(name string) string {
	return fmt.Sprintf("Playlist name changed to: %s", name)
}

func replyPlaylistLink(url string) string {
	return fmt.Sprintf("Here's your playlist link: %s", url)
}

func replyAuthorize(url string) string {
	return replyAuthorizePrefix + url
}

func replyUnknownCommand(command string) string {
	return fmt.Sprintf("Unknown command: /%s\nType /help for available commands", command)
}
