/*
Package envtree loads environment variables from .env files found in a
directory and every parent directory above it.

# How It Works

The loader walks up the tree from the start directory (the working
directory by default) collecting every file with the configured name.
Files closer to the start directory take precedence, and variables already
present in the process environment are never overwritten:

	/srv/.env               # 3rd priority
	/srv/relayd/.env        # 2nd priority
	/srv/relayd/run/.env    # 1st priority, daemon started here

# Usage

	loaded, err := envtree.New(nil).Load()
	if err != nil {
		return err
	}

Parsing is done by github.com/joho/godotenv.
*/
package envtree
